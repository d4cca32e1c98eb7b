package targetgen

import (
	"fmt"

	"github.com/antigravity-dev/corpusgen/internal/axis"
)

// validate runs the four validation gates against the repaired, pruned
// payload. Any failure means the caller's attempt is discarded and
// retried from scratch.
func (g *Generator) validate(p Payload, sel axis.Selection) error {
	if err := validateSparse(p); err != nil {
		return fmt.Errorf("sparse gate: %w", err)
	}
	if err := g.validateSchema(p); err != nil {
		return fmt.Errorf("schema gate: %w", err)
	}
	if err := validateCoherence(p, sel); err != nil {
		return fmt.Errorf("coherence gate: %w", err)
	}
	if err := validateTopicAlignment(p, sel); err != nil {
		return fmt.Errorf("topic-alignment gate: %w", err)
	}
	return nil
}

// validateSparse rejects any null, empty-string, empty-object, or
// empty-list value anywhere in the tree.
func validateSparse(v any) error {
	switch t := v.(type) {
	case nil:
		return fmt.Errorf("null value present")
	case string:
		if t == "" {
			return fmt.Errorf("empty string present")
		}
	case Payload:
		if len(t) == 0 {
			return fmt.Errorf("empty object present")
		}
		for k, vv := range t {
			if err := validateSparse(vv); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	case map[string]any:
		return validateSparse(Payload(t))
	case []any:
		if len(t) == 0 {
			return fmt.Errorf("empty list present")
		}
		for i, item := range t {
			if err := validateSparse(item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// validateSchema walks every path in the payload and checks it is a
// known schema path whose value satisfies its declared leaf spec.
func (g *Generator) validateSchema(p Payload) error {
	return g.validatePaths("", p)
}

func (g *Generator) validatePaths(prefix string, v any) error {
	switch t := v.(type) {
	case Payload:
		for k, vv := range t {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			if err := g.validatePaths(path, vv); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		return g.validatePaths(prefix, Payload(t))
	case []any:
		listPath := prefix
		if !g.schema.IsPrefix(listPath) || g.schema.Kind(listPath) != "list" {
			return fmt.Errorf("%q: not a known list path", listPath)
		}
		for i, item := range t {
			if err := g.validatePaths(prefix+"[]", item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	default:
		if !g.schema.IsLeaf(prefix) {
			return fmt.Errorf("%q: not a known schema leaf", prefix)
		}
		return g.schema.ValidateLeaf(prefix, normalizeForValidation(v))
	}
}

// normalizeForValidation widens Go int values to float64 so they pass
// the schema index's number/integer type check the same way a value
// that already round-tripped through JSON would.
func normalizeForValidation(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	default:
		return t
	}
}

// validateCoherence re-checks the step-6 invariants hold post-repair.
func validateCoherence(p Payload, sel axis.Selection) error {
	defunt, ok := asMap(p["defunt"])
	if !ok {
		return fmt.Errorf("missing decedent identity subtree")
	}
	status, _ := defunt["statut_marital"].(string)
	if status == "veuf" {
		if _, hasPartner := p["partenaire"]; hasPartner {
			return fmt.Errorf("widowed decedent has a surviving partner block")
		}
	}
	if partner, hasPartner := asMap(p["partenaire"]); hasPartner {
		if partner["lien"] == string(axis.PersonaPartenairePacs) {
			if _, hasRegime := p["regime_matrimonial"]; hasRegime {
				return fmt.Errorf("PACS union coexists with a matrimonial-regime liquidation")
			}
		}
	}
	if av, hasAv := asMap(p["assurance_vie"]); hasAv {
		name, _ := defunt["nom"].(string)
		if contrats, ok := av["contrats"].([]any); ok {
			for i, c := range contrats {
				contract, ok := asMap(c)
				if !ok {
					continue
				}
				if insured, has := contract["assure_nom"]; has && insured != name {
					return fmt.Errorf("contrats[%d]: insured name does not match decedent", i)
				}
			}
		}
	}
	if dp, hasDp := asMap(p["donation_partage"]); hasDp {
		if donations, ok := dp["donations"].([]any); ok {
			for i, d := range donations {
				donation, ok := asMap(d)
				if !ok {
					continue
				}
				if donation["donateur_nom"] == donation["beneficiaire_nom"] {
					return fmt.Errorf("donations[%d]: donor equals beneficiary", i)
				}
			}
		}
	}
	if requiresChildEntry(sel[axis.Persona]) && len(listItems(p, "enfants")) == 0 {
		return fmt.Errorf("persona %q requires at least one child entry", sel[axis.Persona])
	}
	return nil
}

// validateTopicAlignment confirms the subtree for each drawn topic is
// present and non-empty and contains its topic-mandatory leaves.
func validateTopicAlignment(p Payload, sel axis.Selection) error {
	for _, topicAxis := range []axis.Axis{axis.PrimaryTopic, axis.SecondaryTopic} {
		topic := sel[topicAxis]
		if topic == axis.BucketNone {
			continue
		}
		block, ok := topicBlocks[topic]
		if !ok {
			continue
		}
		if _, present := p[block.Prefix]; !present {
			return fmt.Errorf("topic %q: subtree %q absent", topic, block.Prefix)
		}
		if block.MandatoryListItem != "" && len(listItems(p, block.MandatoryListItem)) == 0 {
			return fmt.Errorf("topic %q: mandatory list %q empty", topic, block.MandatoryListItem)
		}
	}
	return nil
}
