package targetgen

import "github.com/antigravity-dev/corpusgen/internal/axis"

// TopicBlock names the schema subtree a primary/secondary topic draws
// leaves from, and which part of it is mandatory (at least one contract
// under life-insurance, at least one enterprise under a Dutreil-pact
// topic). Like personaAnchors, this is data: adding a topic means
// adding a row, not a new code path.
type TopicBlock struct {
	// Prefix is the schema subtree root this topic draws optional leaves
	// from.
	Prefix string
	// MandatoryListItem, if set, is a list prefix under Prefix that must
	// receive at least one generated item.
	MandatoryListItem string
}

var topicBlocks = map[axis.Bucket]TopicBlock{
	axis.TopicAssuranceVie:        {Prefix: "assurance_vie", MandatoryListItem: "assurance_vie.contrats"},
	axis.TopicRegimesMatrimoniaux: {Prefix: "regime_matrimonial"},
	axis.TopicDutreil:             {Prefix: "pacte_dutreil", MandatoryListItem: "pacte_dutreil.entreprises"},
	"donation_partage":            {Prefix: "donation_partage", MandatoryListItem: "donation_partage.donations"},
	"succession_immobiliere":      {Prefix: "succession_immobiliere", MandatoryListItem: "succession_immobiliere.biens"},
	"holding_entreprise":          {Prefix: "holding_entreprise"},
	"testament_legs":              {Prefix: "testament", MandatoryListItem: "testament.legs"},
}

// allTopicPrefixes returns every schema prefix any topic block draws
// from, used by the cross-topic sprinkle step to find "unrelated"
// prefixes.
func allTopicPrefixes() []string {
	seen := make(map[string]struct{}, len(topicBlocks))
	out := make([]string, 0, len(topicBlocks))
	for _, block := range topicBlocks {
		if _, ok := seen[block.Prefix]; ok {
			continue
		}
		seen[block.Prefix] = struct{}{}
		out = append(out, block.Prefix)
	}
	return out
}
