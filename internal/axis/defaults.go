package axis

// DefaultCatalog returns the built-in target-share profile. Config may
// override any axis's shares wholesale; axes absent from an override keep
// these defaults.
func DefaultCatalog() Catalog {
	return Catalog{
		Persona: {Buckets: []Share{
			{Bucket: "conjoint", Target: 0.20},
			{Bucket: PersonaEnfant, Target: 0.20},
			{Bucket: PersonaBeauEnfant, Target: 0.08},
			{Bucket: PersonaPetitEnfant, Target: 0.08},
			{Bucket: PersonaPartenairePacs, Target: 0.12},
			{Bucket: PersonaConcubin, Target: 0.10},
			{Bucket: PersonaNotaire, Target: 0.12},
			{Bucket: PersonaAssocieAffaire, Target: 0.10},
		}},
		NarrativeVoice: {Buckets: []Share{
			{Bucket: "premiere_personne", Target: 0.45},
			{Bucket: "troisieme_personne", Target: 0.35},
			{Bucket: "notarial", Target: 0.20},
		}},
		Format: {Buckets: []Share{
			{Bucket: "recit_libre", Target: 0.40},
			{Bucket: "note_structuree", Target: 0.30},
			{Bucket: "echange_courriel", Target: 0.20},
			{Bucket: "proces_verbal", Target: 0.10},
		}},
		LengthBand: {Buckets: []Share{
			{Bucket: "court", Target: 0.30},
			{Bucket: "moyen", Target: 0.45},
			{Bucket: "long", Target: 0.25},
		}},
		Noise: {Buckets: []Share{
			{Bucket: "propre", Target: 0.55},
			{Bucket: "familier", Target: 0.30},
			{Bucket: "bruite", Target: 0.15},
		}},
		NumericDensity: {Buckets: []Share{
			{Bucket: "faible", Target: 0.35},
			{Bucket: "moyenne", Target: 0.35},
			{Bucket: NumericDensityMontantsEtDates, Target: 0.30},
		}},
		DatePrecision: {Buckets: []Share{
			{Bucket: DatePrecisionExacte, Target: 0.45},
			{Bucket: DatePrecisionApprox, Target: 0.35},
			{Bucket: "absente", Target: 0.20},
		}},
		Complexity: {Buckets: []Share{
			{Bucket: ComplexitySimple, Target: 0.45},
			{Bucket: ComplexityComplexe, Target: 0.35},
			{Bucket: ComplexityHardNegative, Target: 0.20},
		}},
		PrimaryTopic: {Buckets: []Share{
			{Bucket: TopicAssuranceVie, Target: 0.18},
			{Bucket: TopicRegimesMatrimoniaux, Target: 0.15},
			{Bucket: TopicDutreil, Target: 0.12},
			{Bucket: "donation_partage", Target: 0.15},
			{Bucket: "succession_immobiliere", Target: 0.20},
			{Bucket: "holding_entreprise", Target: 0.10},
			{Bucket: "testament_legs", Target: 0.10},
		}},
		SecondaryTopic: {Buckets: []Share{
			{Bucket: BucketNone, Target: 0.55},
			{Bucket: TopicAssuranceVie, Target: 0.08},
			{Bucket: TopicDutreil, Target: 0.06},
			{Bucket: "donation_partage", Target: 0.08},
			{Bucket: "succession_immobiliere", Target: 0.09},
			{Bucket: "holding_entreprise", Target: 0.07},
			{Bucket: "testament_legs", Target: 0.07},
		}},
		HardNegativeMode: {Buckets: []Share{
			{Bucket: BucketNone, Target: 0.80},
			{Bucket: "ambiguite_filiation", Target: 0.08},
			{Bucket: "contradiction_montants", Target: 0.07},
			{Bucket: "indice_manquant", Target: 0.05},
		}},
		HardNegativeIntensity: {Buckets: []Share{
			{Bucket: BucketNone, Target: 0.80},
			{Bucket: "leger", Target: 0.10},
			{Bucket: "fort", Target: 0.10},
		}},
	}
}
