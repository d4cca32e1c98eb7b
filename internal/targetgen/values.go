package targetgen

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/antigravity-dev/corpusgen/internal/nameprovider"
	"github.com/antigravity-dev/corpusgen/internal/schema"
)

// cities and assetLabels ground the "concrete, never generic" string
// fallback requirement: a non-name string leaf resolves to a city, an
// asset label, an asset label paired with a city, or (for insurer and
// marital-status keys) an entry of the lists below, rather than a
// placeholder like "valeur1".
var cities = []string{
	"Lyon", "Bordeaux", "Nantes", "Toulouse", "Lille", "Strasbourg",
	"Rennes", "Montpellier", "Marseille", "Dijon", "Angers", "Reims",
}

var assetLabels = []string{
	"appartement de trois pièces", "maison de famille", "portefeuille de titres",
	"local commercial", "véhicule utilitaire", "collection de tableaux",
	"parts de SCI", "terrain agricole",
}

var maritalStatuses = []string{"marie", "pacse", "veuf", "divorce", "celibataire"}

var insurers = []string{"CNP Assurances", "AXA France Vie", "Generali Vie", "Predica", "Suravenir", "Allianz Vie"}

// generator carries the shared random source and name provider used by a
// single generation attempt.
type generator struct {
	rng   *rand.Rand
	names nameprovider.Provider
	death time.Time
}

func newGenerator(rng *rand.Rand, names nameprovider.Provider, death time.Time) *generator {
	return &generator{rng: rng, names: names, death: death}
}

// value produces a leaf value matching spec's scalar type, using the
// leaf's local key name as a plausibility heuristic.
func (g *generator) value(spec schema.LeafSpec) any {
	key := spec.KeyName()
	switch spec.Type {
	case schema.ScalarEnum:
		return spec.Enum[g.rng.Intn(len(spec.Enum))]
	case schema.ScalarBoolean:
		return g.rng.Intn(2) == 0
	case schema.ScalarDate:
		return g.date(key)
	case schema.ScalarInteger:
		return g.integer(key)
	case schema.ScalarNumber:
		return g.number(key)
	case schema.ScalarString:
		return g.string(key)
	default:
		return ""
	}
}

func (g *generator) integer(key string) int {
	switch {
	case isAmountKey(key):
		return amountBuckets[g.rng.Intn(len(amountBuckets))] + g.rng.Intn(500)
	case isAgeKey(key):
		return g.rng.Intn(111)
	default:
		return 1 + g.rng.Intn(12)
	}
}

func (g *generator) number(key string) float64 {
	switch {
	case isAmountKey(key):
		return float64(amountBuckets[g.rng.Intn(len(amountBuckets))]) + g.rng.Float64()*999
	case isRatioKey(key):
		return g.rng.Float64()
	default:
		return float64(g.rng.Intn(1000)) / 10
	}
}

var amountBuckets = []int{500, 2000, 8000, 25000, 80000, 150000, 400000}

func isAmountKey(key string) bool {
	return containsAny(key, "montant", "valeur", "capital", "prime", "solde", "patrimoine")
}

func isAgeKey(key string) bool {
	return containsAny(key, "age")
}

func isRatioKey(key string) bool {
	return containsAny(key, "ratio", "part", "quote_part", "pourcentage")
}

func containsAny(key string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// date produces an ISO-8601 day string in a plausible window relative to
// the decedent's death date: birth dates land decades before death,
// contract/acte dates land in the years immediately preceding or
// following it.
func (g *generator) date(key string) string {
	switch {
	case containsAny(key, "naissance"):
		years := 45 + g.rng.Intn(50)
		return isoDate(g.death.AddDate(-years, -g.rng.Intn(12), -g.rng.Intn(28)))
	case containsAny(key, "deces", "mort"):
		return isoDate(g.death)
	default:
		offsetYears := g.rng.Intn(7) - 3
		return isoDate(g.death.AddDate(offsetYears, g.rng.Intn(12), g.rng.Intn(28)))
	}
}

func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func (g *generator) string(key string) string {
	switch {
	case strings.HasSuffix(key, "noms") || key == "nom" || strings.HasSuffix(key, "_nom"):
		return g.fullName()
	case strings.HasSuffix(key, "prenom") || key == "prenom":
		return g.names.GivenName(nameprovider.GenderAny)
	case containsAny(key, "assureur"):
		return insurers[g.rng.Intn(len(insurers))]
	case containsAny(key, "ville", "lieu", "commune", "residence"):
		return cities[g.rng.Intn(len(cities))]
	case containsAny(key, "statut_marital", "lien_conjugal", "situation_matrimoniale"):
		return maritalStatuses[g.rng.Intn(len(maritalStatuses))]
	case containsAny(key, "label", "designation", "description", "bien", "actif"):
		return assetLabels[g.rng.Intn(len(assetLabels))]
	default:
		return fmt.Sprintf("%s de %s", assetLabels[g.rng.Intn(len(assetLabels))], cities[g.rng.Intn(len(cities))])
	}
}

func (g *generator) givenName() string {
	return g.names.GivenName(nameprovider.GenderAny)
}

func (g *generator) familyName() string {
	return g.names.FamilyName()
}

func (g *generator) fullName() string {
	return nameprovider.FullName(g.givenName(), g.familyName())
}
