package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLowercasesStripsDiacriticsAndCollapsesWhitespace(t *testing.T) {
	got := Normalize("  Éléonore   DUPONT-Béranger ")
	assert.Equal(t, "eleonore dupont-beranger", got)
}

func TestCheckNameCoverageAcceptsFullNamePresent(t *testing.T) {
	text := "Le défunt, Jean Dupont, est décédé à Lyon."
	err := CheckNameCoverage([]string{"Jean Dupont"}, text)
	assert.NoError(t, err)
}

func TestCheckNameCoverageAcceptsPartialLastNameFallback(t *testing.T) {
	text := "Madame Dupont a signé l'acte notarié."
	err := CheckNameCoverage([]string{"Jean Dupont"}, text)
	assert.NoError(t, err)
}

func TestCheckNameCoverageRejectsMissingName(t *testing.T) {
	text := "Le défunt est décédé à Lyon."
	err := CheckNameCoverage([]string{"Jean Dupont"}, text)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingName))
}

func TestCheckLeakageRejectsSchemaKey(t *testing.T) {
	err := CheckLeakage("Le contrat relève de assurance_vie selon le dossier.")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrLeakage))
}

func TestCheckLeakageRejectsEnumCode(t *testing.T) {
	err := CheckLeakage("Le contrat est classé ASSURANCE_VIE dans le registre.")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrLeakage))
}

func TestCheckLeakageAcceptsCleanProse(t *testing.T) {
	err := CheckLeakage("Le défunt Jean Dupont laisse une assurance vie à son épouse.")
	assert.NoError(t, err)
}

func TestSimilarityWindowWarnsOnNearDuplicate(t *testing.T) {
	w := NewSimilarityWindow(10, 0.9)

	text := "Jean Dupont laisse une assurance vie de deux cent mille euros à son épouse Marie."
	warn, sim := w.Check(text)
	assert.False(t, warn)
	assert.Zero(t, sim)

	warn, sim = w.Check(text)
	assert.True(t, warn)
	assert.GreaterOrEqual(t, sim, 0.9)
}

func TestSimilarityWindowBoundsHistory(t *testing.T) {
	w := NewSimilarityWindow(2, 0.9)
	w.Check("premier texte tout à fait différent")
	w.Check("deuxième texte qui ne ressemble à rien")
	w.Check("troisième texte encore une fois distinct")
	assert.Len(t, w.history, 2)
}
