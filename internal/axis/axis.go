// Package axis models the closed set of diversity dimensions the quota
// scheduler draws from, and the inter-axis compatibility rules that must
// hold before a drawn bucket combination is accepted.
package axis

import "strings"

// Axis names one diversity dimension.
type Axis string

const (
	Persona               Axis = "persona"
	NarrativeVoice        Axis = "narrative_voice"
	Format                Axis = "format"
	LengthBand            Axis = "length_band"
	Noise                 Axis = "noise"
	NumericDensity        Axis = "numeric_density"
	DatePrecision         Axis = "date_precision"
	Complexity            Axis = "complexity"
	PrimaryTopic          Axis = "primary_topic"
	SecondaryTopic        Axis = "secondary_topic"
	HardNegativeMode      Axis = "hard_negative_mode"
	HardNegativeIntensity Axis = "hard_negative_intensity"
)

// Ordered is the fixed axis order used to build a Signature.
var Ordered = []Axis{
	Persona, NarrativeVoice, Format, LengthBand, Noise, NumericDensity,
	DatePrecision, Complexity, PrimaryTopic, SecondaryTopic,
	HardNegativeMode, HardNegativeIntensity,
}

// Bucket names a value within an axis. BucketNone marks an axis that is
// not applicable for a given instruction (e.g. SecondaryTopic when no
// second topic was drawn).
type Bucket string

const BucketNone Bucket = ""

// Complexity bucket values, referenced by name in compatibility rules.
const (
	ComplexitySimple       Bucket = "simple"
	ComplexityComplexe     Bucket = "complexe"
	ComplexityHardNegative Bucket = "hard_negative"
)

// Persona bucket values referenced by compatibility rules.
const (
	PersonaPartenairePacs Bucket = "partenaire_pacs"
	PersonaConcubin       Bucket = "concubin"
	PersonaEnfant         Bucket = "enfant"
	PersonaBeauEnfant     Bucket = "beau_enfant"
	PersonaPetitEnfant    Bucket = "petit_enfant"
	PersonaNotaire        Bucket = "notaire"
	PersonaAssocieAffaire Bucket = "associe_affaire"
)

// NumericDensity bucket values.
const (
	NumericDensityMontantsEtDates Bucket = "montants_et_dates"
)

// DatePrecision bucket values.
const (
	DatePrecisionApprox Bucket = "approx"
	DatePrecisionExacte Bucket = "exacte"
)

// PrimaryTopic bucket values referenced by compatibility rules.
const (
	TopicRegimesMatrimoniaux Bucket = "regimes_matrimoniaux"
	TopicAssuranceVie        Bucket = "assurance_vie"
	TopicDutreil             Bucket = "pacte_dutreil"
)

// topicsRequiringSpousalLiquidation are primary/secondary topics that
// imply a spousal liquidation step incompatible with a PACS/concubinage
// persona. The set holds only the matrimonial-regime topic.
var topicsRequiringSpousalLiquidation = map[Bucket]struct{}{
	TopicRegimesMatrimoniaux: {},
}

// Share is one bucket's target fraction of an axis total.
type Share struct {
	Bucket Bucket  `json:"bucket"`
	Target float64 `json:"target"`
}

// Spec is a catalog entry: every bucket available on an axis plus its
// target share. Shares need not be renormalized by callers; Scheduler
// treats a zero share as "never select".
type Spec struct {
	Buckets []Share
}

// Catalog maps every axis to its bucket specification.
type Catalog map[Axis]Spec

// BucketNames returns every bucket name configured for axis, in the order
// they were registered.
func (c Catalog) BucketNames(a Axis) []Bucket {
	spec := c[a]
	out := make([]Bucket, len(spec.Buckets))
	for i, s := range spec.Buckets {
		out[i] = s.Bucket
	}
	return out
}

// TargetShare returns the configured share for a bucket, or 0 if unknown
// (an unreachable bucket).
func (c Catalog) TargetShare(a Axis, b Bucket) float64 {
	for _, s := range c[a].Buckets {
		if s.Bucket == b {
			return s.Target
		}
	}
	return 0
}

// Selection is the bucket chosen on every axis for one instruction.
type Selection map[Axis]Bucket

// Signature is the short-range de-duplication key: the ordered tuple of
// every axis's selected bucket, joined deterministically.
type Signature string

// Sign builds a Signature from a Selection using the fixed axis order.
func (s Selection) Sign() Signature {
	parts := make([]string, len(Ordered))
	for i, a := range Ordered {
		parts[i] = string(s[a])
	}
	return Signature(strings.Join(parts, "|"))
}

// AllowedBuckets filters candidates down to the buckets on axis a that
// remain compatible with the rest of partial. It never adds buckets,
// only removes them.
func AllowedBuckets(a Axis, partial Selection, candidates []Bucket) []Bucket {
	out := make([]Bucket, 0, len(candidates))
	for _, b := range candidates {
		if Compatible(a, b, partial) {
			out = append(out, b)
		}
	}
	return out
}

// Compatible reports whether assigning bucket b to axis a is consistent
// with the rest of the selection already made on other axes.
func Compatible(a Axis, b Bucket, partial Selection) bool {
	switch a {
	case DatePrecision:
		if partial[NumericDensity] == NumericDensityMontantsEtDates {
			return b == DatePrecisionApprox || b == DatePrecisionExacte
		}
	case NumericDensity:
		if b == NumericDensityMontantsEtDates {
			if dp, ok := partial[DatePrecision]; ok && dp != BucketNone {
				return dp == DatePrecisionApprox || dp == DatePrecisionExacte
			}
		}
	case PrimaryTopic, SecondaryTopic:
		if persona := partial[Persona]; persona == PersonaPartenairePacs || persona == PersonaConcubin {
			if _, excluded := topicsRequiringSpousalLiquidation[b]; excluded {
				return false
			}
		}
	case Persona:
		if b == PersonaPartenairePacs || b == PersonaConcubin {
			for _, topicAxis := range []Axis{PrimaryTopic, SecondaryTopic} {
				if t, ok := partial[topicAxis]; ok {
					if _, excluded := topicsRequiringSpousalLiquidation[t]; excluded {
						return false
					}
				}
			}
		}
	case Complexity:
		for _, hn := range []Axis{HardNegativeMode, HardNegativeIntensity} {
			v, ok := partial[hn]
			if !ok {
				continue
			}
			if b == ComplexityHardNegative && v == BucketNone {
				return false
			}
			if b != ComplexityHardNegative && v != BucketNone {
				return false
			}
		}
	case HardNegativeMode, HardNegativeIntensity:
		complexity := partial[Complexity]
		if complexity != ComplexityHardNegative {
			return b == BucketNone
		}
		return b != BucketNone
	}
	return true
}

// SecondaryTopicDrawProbability returns how likely a secondary topic
// should be sampled at all, increasing with complexity.
func SecondaryTopicDrawProbability(complexity Bucket) float64 {
	switch complexity {
	case ComplexitySimple:
		return 0.10
	case ComplexityComplexe, ComplexityHardNegative:
		return 0.55
	default:
		return 0.25
	}
}

// RequiresHardNegativeAxes reports whether complexity forces the hard
// negative mode/intensity axes to be drawn.
func RequiresHardNegativeAxes(complexity Bucket) bool {
	return complexity == ComplexityHardNegative
}
