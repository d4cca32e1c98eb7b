package targetgen

import "github.com/antigravity-dev/corpusgen/internal/axis"

// repair normalizes and/or drops leaves to enforce the business
// invariants. It runs after the draft payload is assembled and before
// the validation gates; any branch it empties out is removed by the
// caller's subsequent pruneEmpty pass.
func repair(p Payload, sel axis.Selection, gen *generator) {
	repairMaritalPartner(p, sel)
	repairInsuredIdentity(p)
	repairDonationDistinctness(p)
	repairChildPresence(p, sel, gen)
}

// repairMaritalPartner enforces: a widowed decedent has no surviving
// partner block, and a PACS union cannot coexist with a matrimonial-
// regime liquidation subtree.
func repairMaritalPartner(p Payload, sel axis.Selection) {
	defunt, ok := asMap(p["defunt"])
	if !ok {
		return
	}
	status, _ := defunt["statut_marital"].(string)
	if status == "veuf" {
		delete(p, "partenaire")
	}

	partner, hasPartner := asMap(p["partenaire"])
	if hasPartner {
		lien, _ := partner["lien"].(string)
		if lien == string(axis.PersonaPartenairePacs) {
			delete(p, "regime_matrimonial")
		}
	}
}

// repairInsuredIdentity forces every life-insurance contract's insured
// name to equal the decedent's own name.
func repairInsuredIdentity(p Payload) {
	defunt, ok := asMap(p["defunt"])
	if !ok {
		return
	}
	name, ok := defunt["nom"].(string)
	if !ok {
		return
	}
	av, ok := asMap(p["assurance_vie"])
	if !ok {
		return
	}
	contrats, ok := av["contrats"].([]any)
	if !ok {
		return
	}
	for _, c := range contrats {
		contract, ok := asMap(c)
		if !ok {
			continue
		}
		if _, has := contract["assure_nom"]; has {
			contract["assure_nom"] = name
		}
	}
}

// repairDonationDistinctness ensures no donation names the same person as
// both donor and beneficiary.
func repairDonationDistinctness(p Payload) {
	dp, ok := asMap(p["donation_partage"])
	if !ok {
		return
	}
	donations, ok := dp["donations"].([]any)
	if !ok {
		return
	}
	kept := donations[:0]
	for _, d := range donations {
		donation, ok := asMap(d)
		if !ok {
			continue
		}
		if donation["donateur_nom"] == donation["beneficiaire_nom"] {
			continue
		}
		kept = append(kept, d)
	}
	dp["donations"] = kept
}

// repairChildPresence guarantees at least one child entry exists whenever
// the drawn persona is a child-role persona; the common path already
// adds one in personaAnchors, this is the repair-pass backstop.
func repairChildPresence(p Payload, sel axis.Selection, gen *generator) {
	if !requiresChildEntry(sel[axis.Persona]) {
		return
	}
	if len(listItems(p, "enfants")) > 0 {
		return
	}
	p["enfants"] = []any{map[string]any{
		"nom":    gen.familyName(),
		"prenom": gen.givenName(),
		"lien":   string(sel[axis.Persona]),
	}}
}
