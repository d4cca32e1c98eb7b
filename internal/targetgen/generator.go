package targetgen

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/antigravity-dev/corpusgen/internal/axis"
	"github.com/antigravity-dev/corpusgen/internal/nameprovider"
	"github.com/antigravity-dev/corpusgen/internal/schema"
	"github.com/antigravity-dev/corpusgen/internal/toon"
)

// DefaultMaxAttempts is the generator's bounded retry budget.
const DefaultMaxAttempts = 50

// crossTopicSprinkleProbability is the low-probability chance of adding
// an unrelated prefix's leaves to model multi-layer situations.
const crossTopicSprinkleProbability = 0.08

// Result is a successfully generated, validated, and TOON-encoded
// target, ready to be locked onto an instruction.
type Result struct {
	Payload     Payload
	TOON        string
	MustInclude []string
	MustAvoid   []string
}

// Generator produces Results for a given axis selection.
type Generator struct {
	schema *schema.Index
	codec  *toon.Adapter
	names  nameprovider.Provider
	rng    *rand.Rand
	maxTry int
}

// New builds a Generator. maxAttempts<=0 falls back to DefaultMaxAttempts.
func New(idx *schema.Index, codec *toon.Adapter, names nameprovider.Provider, rng *rand.Rand, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{schema: idx, codec: codec, names: names, rng: rng, maxTry: maxAttempts}
}

// ErrExhausted is returned when every attempt within the retry budget
// failed a validation gate or the codec round trip.
type ErrExhausted struct {
	Attempts int
	LastErr  error
}

func (e *ErrExhausted) Error() string {
	return fmt.Sprintf("targetgen: exhausted %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ErrExhausted) Unwrap() error { return e.LastErr }

// Generate runs the pipeline up to g.maxTry independent times, returning
// the first attempt that clears every validation gate and round-trips
// through the TOON codec.
func (g *Generator) Generate(ctx context.Context, sel axis.Selection) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < g.maxTry; attempt++ {
		result, err := g.attempt(ctx, sel)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, &ErrExhausted{Attempts: g.maxTry, LastErr: lastErr}
}

func (g *Generator) attempt(ctx context.Context, sel axis.Selection) (*Result, error) {
	deathYear := 1960 + g.rng.Intn(64)
	death := time.Date(deathYear, time.Month(1+g.rng.Intn(12)), 1+g.rng.Intn(28), 0, 0, 0, 0, time.UTC)
	gen := newGenerator(g.rng, g.names, death)

	payload := Payload{}
	g.mandatoryIdentity(payload, gen, sel)
	g.personaAnchors(payload, gen, sel)
	g.topicBlocks(payload, gen, sel)
	g.crossTopicSprinkle(payload, gen, sel)

	repair(payload, sel, gen)
	pruneEmpty(payload)

	if err := g.validate(payload, sel); err != nil {
		return nil, err
	}

	flat := map[string]any(payload)
	encoded, err := g.codec.RoundTrip(ctx, flat)
	if err != nil {
		return nil, err
	}

	return &Result{
		Payload:     payload,
		TOON:        encoded,
		MustInclude: collectPersonalNames(payload),
		MustAvoid:   leakagePatterns(),
	}, nil
}

// mandatoryIdentity always populates the decedent's identity subtree and,
// when the drawn persona implies a partner, the partner subtree with its
// link type. Dates are kept internally consistent by construction: birth
// is always generated strictly before the fixed death date.
func (g *Generator) mandatoryIdentity(p Payload, gen *generator, sel axis.Selection) {
	defunt := map[string]any{
		"nom":            gen.familyName(),
		"prenom":         gen.givenName(),
		"date_naissance": gen.date("naissance"),
		"date_deces":     gen.date("deces"),
		"statut_marital": maritalStatusFor(sel[axis.Persona]),
	}
	p["defunt"] = Payload(defunt)

	anchor, ok := personaAnchors[sel[axis.Persona]]
	if ok && anchor.LinkType != "" {
		p["partenaire"] = Payload(map[string]any{
			"nom":    gen.familyName(),
			"prenom": gen.givenName(),
			"lien":   anchor.LinkType,
		})
	}
}

// personaAnchors adds the subtree(s) the drawn persona logically entails.
func (g *Generator) personaAnchors(p Payload, gen *generator, sel axis.Selection) {
	anchor, ok := personaAnchors[sel[axis.Persona]]
	if !ok {
		return
	}
	if anchor.RequiredListItem == "enfants" {
		child := map[string]any{
			"nom":    gen.familyName(),
			"prenom": gen.givenName(),
			"lien":   string(sel[axis.Persona]),
		}
		p["enfants"] = append(listItems(p, "enfants"), child)
	}
	if anchor.RequiredObjectPrefix == "observateur_professionnel" {
		p["observateur_professionnel"] = Payload(map[string]any{"nom": gen.fullName(), "role": "notaire"})
	}
	if anchor.RequiredObjectPrefix == "entreprise" {
		p["entreprise"] = Payload(map[string]any{
			"denomination":    gen.string("denomination"),
			"forme_juridique": "SARL",
			"capital":         gen.number("capital"),
		})
	}
}

// topicBlocks fills the schema subtree associated with each drawn topic,
// sampling optional leaves with probability increasing in complexity and
// always filling the topic's mandatory list item.
func (g *Generator) topicBlocks(p Payload, gen *generator, sel axis.Selection) {
	sampleProb := sampleProbabilityFor(sel[axis.Complexity])

	for _, topicAxis := range []axis.Axis{axis.PrimaryTopic, axis.SecondaryTopic} {
		topic := sel[topicAxis]
		if topic == axis.BucketNone {
			continue
		}
		block, ok := topicBlocks[topic]
		if !ok {
			continue
		}
		g.fillPrefix(p, gen, block.Prefix, sampleProb)
		if block.MandatoryListItem != "" {
			if len(listItems(p, block.MandatoryListItem)) == 0 {
				g.addMandatoryListItem(p, gen, block.MandatoryListItem)
			}
		} else if _, present := p[block.Prefix]; !present {
			g.forceOneScalarLeaf(p, gen, block.Prefix)
		}
	}
}

// fillPrefix samples scalar leaves under prefix with probability
// sampleProb. For a list under prefix that is still empty, each of its
// leaves gives a sampleProb chance of adding one complete item, so a list
// may stay empty; topicBlocks adds a topic's mandatory list item itself.
func (g *Generator) fillPrefix(p Payload, gen *generator, prefix string, sampleProb float64) {
	for _, leaf := range g.schema.LeavesUnder(prefix) {
		if listPath, _, isListLeaf := listPrefixOf(leaf); isListLeaf {
			if len(listItems(p, listPath)) == 0 && g.rng.Float64() < sampleProb {
				g.addMandatoryListItem(p, gen, listPath)
			}
			continue
		}
		if g.rng.Float64() > sampleProb {
			continue
		}
		spec, _ := g.schema.Leaf(leaf)
		setScalarLeaf(p, leaf, gen.value(spec))
	}
}

// forceOneScalarLeaf populates the first scalar leaf under prefix,
// ensuring a mandatory-topic subtree with no list is never left absent
// purely by the luck of sampling.
func (g *Generator) forceOneScalarLeaf(p Payload, gen *generator, prefix string) {
	for _, leaf := range g.schema.LeavesUnder(prefix) {
		if _, _, isListLeaf := listPrefixOf(leaf); isListLeaf {
			continue
		}
		spec, ok := g.schema.Leaf(leaf)
		if !ok {
			continue
		}
		setScalarLeaf(p, leaf, gen.value(spec))
		return
	}
}

// addMandatoryListItem builds one complete flat item for the list at
// listPath, filling every leaf the item template declares.
func (g *Generator) addMandatoryListItem(p Payload, gen *generator, listPath string) {
	item := map[string]any{}
	itemPrefix := listPath + "[]"
	for _, leaf := range g.schema.LeavesUnder(listPath) {
		field := leaf[len(itemPrefix)+1:]
		spec, ok := g.schema.Leaf(leaf)
		if !ok {
			continue
		}
		item[field] = gen.value(spec)
	}
	appendListItem(p, listPath, item)
}

// crossTopicSprinkle occasionally adds a few leaves from a prefix
// unrelated to any drawn topic, modeling multi-layer situations.
func (g *Generator) crossTopicSprinkle(p Payload, gen *generator, sel axis.Selection) {
	if g.rng.Float64() > crossTopicSprinkleProbability {
		return
	}
	drawn := map[string]struct{}{}
	for _, topicAxis := range []axis.Axis{axis.PrimaryTopic, axis.SecondaryTopic} {
		if block, ok := topicBlocks[sel[topicAxis]]; ok {
			drawn[block.Prefix] = struct{}{}
		}
	}
	var candidates []string
	for _, prefix := range allTopicPrefixes() {
		if _, used := drawn[prefix]; !used {
			candidates = append(candidates, prefix)
		}
	}
	if len(candidates) == 0 {
		return
	}
	chosen := candidates[g.rng.Intn(len(candidates))]
	g.fillPrefix(p, gen, chosen, 0.3)
}

func sampleProbabilityFor(complexity axis.Bucket) float64 {
	switch complexity {
	case axis.ComplexitySimple:
		return 0.35
	case axis.ComplexityComplexe:
		return 0.65
	case axis.ComplexityHardNegative:
		return 0.55
	default:
		return 0.4
	}
}

func maritalStatusFor(persona axis.Bucket) string {
	switch persona {
	case "conjoint":
		return "marie"
	case axis.PersonaPartenairePacs:
		return "pacse"
	case axis.PersonaConcubin:
		return "celibataire"
	default:
		return "veuf"
	}
}

func leakagePatterns() []string {
	return []string{`\b[a-z][a-z0-9]*(?:_[a-z0-9]+){1,}\b`, `\b[A-Z]{2,}(?:_[A-Z0-9]{2,})+\b`}
}
