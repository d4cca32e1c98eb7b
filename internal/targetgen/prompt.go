package targetgen

import (
	"fmt"
	"strings"

	"github.com/antigravity-dev/corpusgen/internal/axis"
)

// hardNegativeInstructions maps a hard-negative mode to the prompt
// instruction that realizes it at the text layer. The target itself
// stays schema-valid and coherent regardless of complexity; only the
// generation instructions change.
var hardNegativeInstructions = map[axis.Bucket]string{
	"ambiguite_filiation":    "Laisse planer une ambiguïté sur le lien de filiation exact sans jamais le contredire explicitement.",
	"contradiction_montants": "Introduis une légère incohérence apparente entre deux montants mentionnés, sans jamais citer de valeur absente du dossier.",
	"indice_manquant":        "Omets un indice habituellement attendu (date, lieu ou qualité d'un intervenant) tout en restant cohérent avec le dossier.",
}

var formatInstructions = map[axis.Bucket]string{
	"recit_libre":      "Rédige un récit libre à la première ou troisième personne.",
	"note_structuree":  "Rédige une note structurée avec des rubriques courtes.",
	"echange_courriel": "Rédige le texte sous forme d'échange de courriels professionnels.",
	"proces_verbal":    "Rédige le texte sous forme de procès-verbal notarié.",
}

var noiseInstructions = map[axis.Bucket]string{
	"propre":   "Le texte doit être propre, sans fautes ni hésitations.",
	"familier": "Adopte un registre familier, avec quelques tournures orales.",
	"bruite":   "Introduis quelques fautes de frappe et hésitations réalistes.",
}

// BuildPrompt constructs the text-generation prompt an agent receives
// alongside the locked TOON target, mirroring the structured-sections
// prompt-builder idiom (strings.Builder, fmt.Fprintf, numbered
// instructions) used elsewhere for agent-facing prompts in this codebase.
func BuildPrompt(sel axis.Selection, result *Result) string {
	var b strings.Builder

	b.WriteString("Tu rédiges un cas synthétique en français pour l'entraînement d'un modèle d'extraction d'information successorale.\n\n")
	fmt.Fprintf(&b, "## Paramètres de rédaction\n")
	fmt.Fprintf(&b, "- Persona narrateur : %s\n", sel[axis.Persona])
	fmt.Fprintf(&b, "- Voix narrative : %s\n", sel[axis.NarrativeVoice])
	fmt.Fprintf(&b, "- Longueur : %s\n", sel[axis.LengthBand])
	fmt.Fprintf(&b, "- Densité numérique : %s\n", sel[axis.NumericDensity])
	fmt.Fprintf(&b, "- Précision des dates : %s\n", sel[axis.DatePrecision])

	if instr, ok := formatInstructions[sel[axis.Format]]; ok {
		b.WriteString(instr + "\n")
	}
	if instr, ok := noiseInstructions[sel[axis.Noise]]; ok {
		b.WriteString(instr + "\n")
	}

	if mode := sel[axis.HardNegativeMode]; mode != axis.BucketNone {
		b.WriteString("\n## Contrainte de cas ambigu\n")
		if instr, ok := hardNegativeInstructions[mode]; ok {
			fmt.Fprintf(&b, "%s (intensité : %s)\n", instr, sel[axis.HardNegativeIntensity])
		}
	}

	b.WriteString("\n## Cible structurée verrouillée (TOON)\n")
	b.WriteString("```\n")
	b.WriteString(result.TOON)
	b.WriteString("\n```\n\n")

	b.WriteString("## Instructions\n")
	b.WriteString("1. Rédige un texte cohérent avec la cible structurée ci-dessus, sans jamais citer de clé technique ni de code d'énumération.\n")
	b.WriteString("2. Chaque personne nommée dans la cible doit apparaître nommément dans le texte.\n")
	b.WriteString("3. N'invente aucune information absente de la cible structurée.\n")

	if len(result.MustInclude) > 0 {
		b.WriteString("\n## Noms devant apparaître dans le texte\n")
		for _, name := range result.MustInclude {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}

	return b.String()
}
