package axis

import "testing"

func TestSignatureOrderIsStable(t *testing.T) {
	sel := Selection{
		Persona:        "conjoint",
		Complexity:     ComplexitySimple,
		NumericDensity: "faible",
	}
	got := sel.Sign()
	want := Signature("conjoint|||||faible||simple||||")
	if got != want {
		t.Errorf("Sign() = %q, want %q", got, want)
	}
}

func TestCompatibleNumericDensityRestrictsDatePrecision(t *testing.T) {
	partial := Selection{NumericDensity: NumericDensityMontantsEtDates}
	if Compatible(DatePrecision, "absente", partial) {
		t.Error("absente should be excluded when numeric density is montants_et_dates")
	}
	if !Compatible(DatePrecision, DatePrecisionApprox, partial) {
		t.Error("approx should remain allowed")
	}
}

func TestCompatiblePersonaExcludesMatrimonialTopic(t *testing.T) {
	partial := Selection{Persona: PersonaConcubin}
	if Compatible(PrimaryTopic, TopicRegimesMatrimoniaux, partial) {
		t.Error("regimes_matrimoniaux should be excluded for a concubin persona")
	}
	if !Compatible(PrimaryTopic, TopicAssuranceVie, partial) {
		t.Error("unrelated topics should remain allowed")
	}

	partialTopic := Selection{PrimaryTopic: TopicRegimesMatrimoniaux}
	if Compatible(Persona, PersonaPartenairePacs, partialTopic) {
		t.Error("partenaire_pacs should be excluded once the matrimonial topic is locked")
	}
}

func TestCompatibleHardNegativeAxesRequireComplexity(t *testing.T) {
	simple := Selection{Complexity: ComplexitySimple}
	if Compatible(HardNegativeMode, "ambiguite_filiation", simple) {
		t.Error("hard negative mode must be unset outside hard_negative complexity")
	}
	if !Compatible(HardNegativeMode, BucketNone, simple) {
		t.Error("BucketNone should remain allowed outside hard_negative complexity")
	}

	hardNeg := Selection{Complexity: ComplexityHardNegative}
	if Compatible(HardNegativeMode, BucketNone, hardNeg) {
		t.Error("hard negative mode must be set when complexity is hard_negative")
	}
	if !Compatible(HardNegativeMode, "indice_manquant", hardNeg) {
		t.Error("a concrete mode should be allowed under hard_negative complexity")
	}
}

func TestAllowedBucketsFiltersCandidates(t *testing.T) {
	partial := Selection{NumericDensity: NumericDensityMontantsEtDates}
	candidates := []Bucket{DatePrecisionExacte, DatePrecisionApprox, "absente"}
	got := AllowedBuckets(DatePrecision, partial, candidates)
	if len(got) != 2 {
		t.Fatalf("expected 2 allowed buckets, got %v", got)
	}
}

func TestSecondaryTopicDrawProbabilityIncreasesWithComplexity(t *testing.T) {
	simple := SecondaryTopicDrawProbability(ComplexitySimple)
	hard := SecondaryTopicDrawProbability(ComplexityHardNegative)
	if !(simple < hard) {
		t.Errorf("expected simple probability %v < hard negative probability %v", simple, hard)
	}
}

func TestDefaultCatalogSharesArePositive(t *testing.T) {
	cat := DefaultCatalog()
	for _, a := range Ordered {
		spec := cat[a]
		if len(spec.Buckets) == 0 {
			continue
		}
		total := 0.0
		for _, s := range spec.Buckets {
			if s.Target < 0 {
				t.Errorf("axis %s bucket %s has negative share", a, s.Bucket)
			}
			total += s.Target
		}
		if total <= 0 {
			t.Errorf("axis %s has no positive share", a)
		}
	}
}
