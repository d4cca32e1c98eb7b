package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchema(t *testing.T, doc any) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func sampleSchema() map[string]any {
	return map[string]any{
		"kind": "object",
		"fields": map[string]any{
			"defunt": map[string]any{
				"kind": "object",
				"fields": map[string]any{
					"nom":            map[string]any{"kind": "scalar", "type": "string"},
					"date_naissance": map[string]any{"kind": "scalar", "type": "date"},
					"statut_marital": map[string]any{"kind": "enum", "values": []string{"marie", "veuf", "pacse", "concubin"}},
				},
			},
			"contrats": map[string]any{
				"kind": "list",
				"item": map[string]any{
					"kind": "object",
					"fields": map[string]any{
						"nom_assureur": map[string]any{"kind": "scalar", "type": "string"},
						"montant":      map[string]any{"kind": "scalar", "type": "number"},
					},
				},
			},
		},
	}
}

func TestLoadIndexesLeavesAndPrefixes(t *testing.T) {
	path := writeSchema(t, sampleSchema())
	idx, err := Load(path)
	require.NoError(t, err)

	assert.True(t, idx.IsLeaf("defunt.nom"))
	assert.True(t, idx.IsLeaf("contrats[].montant"))
	assert.True(t, idx.IsPrefix("defunt"))
	assert.True(t, idx.IsPrefix("contrats"))
	assert.False(t, idx.IsLeaf("defunt"))
	assert.False(t, idx.IsPrefix("defunt.nom"))

	spec, ok := idx.Leaf("contrats[].nom_assureur")
	require.True(t, ok)
	assert.Equal(t, ScalarString, spec.Type)
	assert.Equal(t, "nom_assureur", spec.KeyName())

	leaves := idx.LeavesUnder("contrats")
	assert.Contains(t, leaves, "contrats[].montant")
	assert.Contains(t, leaves, "contrats[].nom_assureur")
}

func TestValidateLeaf(t *testing.T) {
	path := writeSchema(t, sampleSchema())
	idx, err := Load(path)
	require.NoError(t, err)

	assert.NoError(t, idx.ValidateLeaf("defunt.nom", "Dupont"))
	assert.Error(t, idx.ValidateLeaf("defunt.nom", 12))
	assert.NoError(t, idx.ValidateLeaf("defunt.date_naissance", "1950-01-02"))
	assert.Error(t, idx.ValidateLeaf("defunt.date_naissance", "not-a-date"))
	assert.NoError(t, idx.ValidateLeaf("defunt.statut_marital", "veuf"))
	assert.Error(t, idx.ValidateLeaf("defunt.statut_marital", "divorce"))
	assert.NoError(t, idx.ValidateLeaf("contrats[].montant", 1200))
	assert.Error(t, idx.ValidateLeaf("unknown.path", "x"))
}

func TestLoadRejectsUnknownNodeKind(t *testing.T) {
	doc := map[string]any{
		"kind": "object",
		"fields": map[string]any{
			"weird": map[string]any{"kind": "mystery"},
		},
	}
	path := writeSchema(t, doc)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsEmptySchema(t *testing.T) {
	doc := map[string]any{"kind": "object", "fields": map[string]any{}}
	path := writeSchema(t, doc)
	_, err := Load(path)
	assert.Error(t, err)
}
