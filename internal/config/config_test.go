package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity-dev/corpusgen/internal/axis"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"state_dir": "state",
		"master_schema_path": "schema/master_schema.json",
		"generation": {"target_total": 100}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 50, cfg.Generation.MaxAttempts)
	assert.Equal(t, 32, cfg.Generation.FIFOSize)
	assert.Equal(t, 100, cfg.Generation.GenerationTarget)
	assert.Equal(t, "toon", cfg.Codec.Binary)
	assert.Equal(t, 50, cfg.Similarity.WindowSize)
	assert.True(t, filepath.IsAbs(cfg.StateDir))
}

func TestLoadRejectsMissingStateDir(t *testing.T) {
	path := writeConfig(t, `{"master_schema_path": "x", "generation": {"target_total": 1}}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveTarget(t *testing.T) {
	path := writeConfig(t, `{"state_dir": "s", "master_schema_path": "x", "generation": {"target_total": 0}}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEffectiveAxisCatalogMergesOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"state_dir": "state",
		"master_schema_path": "schema/master_schema.json",
		"generation": {"target_total": 100},
		"axis_shares": {
			"primary_topic": [{"bucket": "assurance_vie", "target": 1.0}]
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	catalog := cfg.EffectiveAxisCatalog()
	require.Len(t, catalog[axis.PrimaryTopic].Buckets, 1)
	assert.Equal(t, axis.TopicAssuranceVie, catalog[axis.PrimaryTopic].Buckets[0].Bucket)
	assert.Equal(t, 1.0, catalog.TargetShare(axis.PrimaryTopic, axis.TopicAssuranceVie))

	// Axes absent from the override keep the built-in defaults.
	assert.NotEmpty(t, catalog[axis.Persona].Buckets)
}

func TestManagerGetReturnsClone(t *testing.T) {
	path := writeConfig(t, `{
		"state_dir": "state",
		"master_schema_path": "schema/master_schema.json",
		"generation": {"target_total": 10}
	}`)
	mgr, err := LoadManager(path)
	require.NoError(t, err)

	a := mgr.Get()
	b := mgr.Get()
	assert.NotSame(t, a, b)
	assert.Equal(t, a.StateDir, b.StateDir)
}

func TestManagerReloadSwapsConfig(t *testing.T) {
	path := writeConfig(t, `{
		"state_dir": "state",
		"master_schema_path": "schema/master_schema.json",
		"generation": {"target_total": 10}
	}`)
	mgr, err := LoadManager(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{
		"state_dir": "state",
		"master_schema_path": "schema/master_schema.json",
		"generation": {"target_total": 20}
	}`), 0o644))
	require.NoError(t, mgr.Reload(path))

	cfg := mgr.Get()
	assert.Equal(t, 20, cfg.Generation.TargetTotal)

	// Moving the state directory is a restart, not a reload.
	require.NoError(t, os.WriteFile(path, []byte(`{
		"state_dir": "state2",
		"master_schema_path": "schema/master_schema.json",
		"generation": {"target_total": 30}
	}`), 0o644))
	assert.Error(t, mgr.Reload(path))
	assert.Equal(t, 20, mgr.Get().Generation.TargetTotal)
}
