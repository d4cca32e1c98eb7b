package targetgen

import "github.com/antigravity-dev/corpusgen/internal/axis"

// PersonaAnchor names schema prefixes and leaf paths that a persona
// logically entails. This table is data, not branching code: adding a
// persona means adding a row here, never a new switch case in the
// generator.
type PersonaAnchor struct {
	// RequiredListItem, if set, names a list prefix under which at least
	// one item must be generated (e.g. one child entry for a child
	// persona).
	RequiredListItem string
	// RequiredObjectPrefix, if set, names a nested object that must be
	// populated (e.g. the professional-observer marker for a notary).
	RequiredObjectPrefix string
	// LinkType, if non-empty, is the spouse/partner link-type value this
	// persona implies on the decedent's partner subtree.
	LinkType string
}

// personaAnchors maps every persona bucket to the subtree(s) it anchors.
// Personas absent from this table anchor nothing beyond the mandatory
// identity subtree.
var personaAnchors = map[axis.Bucket]PersonaAnchor{
	"conjoint":                 {LinkType: "conjoint"},
	axis.PersonaPartenairePacs: {LinkType: "partenaire_pacs"},
	axis.PersonaConcubin:       {LinkType: "concubin"},
	axis.PersonaEnfant:         {RequiredListItem: "enfants"},
	axis.PersonaBeauEnfant:     {RequiredListItem: "enfants"},
	axis.PersonaPetitEnfant:    {RequiredListItem: "enfants"},
	axis.PersonaNotaire:        {RequiredObjectPrefix: "observateur_professionnel"},
	axis.PersonaAssocieAffaire: {RequiredObjectPrefix: "entreprise"},
}

// requiresChildEntry reports whether persona requires at least one child
// list entry.
func requiresChildEntry(persona axis.Bucket) bool {
	switch persona {
	case axis.PersonaEnfant, axis.PersonaBeauEnfant, axis.PersonaPetitEnfant:
		return true
	default:
		return false
	}
}
