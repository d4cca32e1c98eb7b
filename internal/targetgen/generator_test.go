package targetgen

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity-dev/corpusgen/internal/axis"
	"github.com/antigravity-dev/corpusgen/internal/nameprovider"
	"github.com/antigravity-dev/corpusgen/internal/schema"
	"github.com/antigravity-dev/corpusgen/internal/toon"
)

// identityCodec returns a fake "toon" binary that cats stdin back, so
// decode(encode(p)) always equals p structurally, letting these tests
// exercise the full pipeline without the real external codec.
func identityCodec(t *testing.T) *toon.Adapter {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toon-identity")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\ncat\n"), 0o755))
	return toon.New(path, 2*time.Second)
}

func loadMasterSchema(t *testing.T) *schema.Index {
	t.Helper()
	idx, err := schema.Load(filepath.Join("..", "..", "schema", "master_schema.json"))
	require.NoError(t, err)
	return idx
}

func newTestGenerator(t *testing.T, seed int64) *Generator {
	idx := loadMasterSchema(t)
	codec := identityCodec(t)
	names := nameprovider.NewFallbackProvider()
	return New(idx, codec, names, rand.New(rand.NewSource(seed)), 50)
}

func selectionFor(persona, primaryTopic axis.Bucket, complexity axis.Bucket) axis.Selection {
	return axis.Selection{
		axis.Persona:        persona,
		axis.NarrativeVoice: "premiere_personne",
		axis.Format:         "recit_libre",
		axis.LengthBand:     "moyen",
		axis.Noise:          "propre",
		axis.NumericDensity: "moyenne",
		axis.DatePrecision:  axis.DatePrecisionExacte,
		axis.Complexity:     complexity,
		axis.PrimaryTopic:   primaryTopic,
	}
}

func TestGenerateProducesSparseSchemaValidPayload(t *testing.T) {
	g := newTestGenerator(t, 1)
	sel := selectionFor("conjoint", axis.TopicAssuranceVie, axis.ComplexitySimple)

	result, err := g.Generate(context.Background(), sel)
	require.NoError(t, err)

	require.NoError(t, validateSparse(result.Payload))
	require.NoError(t, g.validateSchema(result.Payload))
	assert.NotEmpty(t, result.TOON)
	assert.NotEmpty(t, result.MustInclude)
}

func TestGenerateIncludesMandatoryTopicSubtree(t *testing.T) {
	g := newTestGenerator(t, 2)
	sel := selectionFor(axis.PersonaNotaire, axis.TopicAssuranceVie, axis.ComplexityComplexe)

	result, err := g.Generate(context.Background(), sel)
	require.NoError(t, err)

	av, ok := asMap(result.Payload["assurance_vie"])
	require.True(t, ok)
	contrats, ok := av["contrats"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, contrats)

	first, ok := asMap(contrats[0])
	require.True(t, ok)
	defunt, ok := asMap(result.Payload["defunt"])
	require.True(t, ok)
	assert.Equal(t, defunt["nom"], first["assure_nom"])
}

func TestGenerateChildPersonaAlwaysHasChildEntry(t *testing.T) {
	g := newTestGenerator(t, 3)
	sel := selectionFor(axis.PersonaEnfant, "succession_immobiliere", axis.ComplexitySimple)

	result, err := g.Generate(context.Background(), sel)
	require.NoError(t, err)
	assert.NotEmpty(t, listItems(result.Payload, "enfants"))
}

func TestGenerateWidowedPersonaNeverHasPartnerBlock(t *testing.T) {
	g := newTestGenerator(t, 4)
	sel := selectionFor(axis.PersonaNotaire, "testament_legs", axis.ComplexitySimple)

	result, err := g.Generate(context.Background(), sel)
	require.NoError(t, err)

	defunt, ok := asMap(result.Payload["defunt"])
	require.True(t, ok)
	if defunt["statut_marital"] == "veuf" {
		_, hasPartner := result.Payload["partenaire"]
		assert.False(t, hasPartner)
	}
}

func TestGenerateDonationNeverPairsSameDonorAndBeneficiary(t *testing.T) {
	g := newTestGenerator(t, 5)
	sel := selectionFor(axis.PersonaAssocieAffaire, "donation_partage", axis.ComplexityComplexe)

	result, err := g.Generate(context.Background(), sel)
	require.NoError(t, err)

	dp, ok := asMap(result.Payload["donation_partage"])
	if !ok {
		return
	}
	donations, ok := dp["donations"].([]any)
	require.True(t, ok)
	for _, d := range donations {
		donation, ok := asMap(d)
		require.True(t, ok)
		assert.NotEqual(t, donation["donateur_nom"], donation["beneficiaire_nom"])
	}
}

func TestCollectPersonalNamesFindsNomAndSuffixedKeys(t *testing.T) {
	p := Payload{
		"defunt": Payload{"nom": "Jean Dupont"},
		"assurance_vie": Payload{
			"contrats": []any{
				map[string]any{"beneficiaire_nom": "Marie Dupont", "montant": 1000},
			},
		},
	}
	names := collectPersonalNames(p)
	assert.Contains(t, names, "Jean Dupont")
	assert.Contains(t, names, "Marie Dupont")
}

func TestBuildPromptIncludesTargetAndNames(t *testing.T) {
	sel := selectionFor("conjoint", axis.TopicAssuranceVie, axis.ComplexitySimple)
	result := &Result{TOON: "encoded-target", MustInclude: []string{"Jean Dupont"}}

	prompt := BuildPrompt(sel, result)
	assert.Contains(t, prompt, "encoded-target")
	assert.Contains(t, prompt, "Jean Dupont")
}
