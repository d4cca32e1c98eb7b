// Package validator enforces text-target coherence on a submitted case:
// every personal name in the locked target must appear in the text, no
// schema-shaped token may leak into it, and near-duplicate submissions are
// flagged (not rejected).
package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrMissingName is returned when a required personal name from the
// locked target does not appear in the submitted text.
var ErrMissingName = errors.New("validator: required name missing from case text")

// ErrLeakage is returned when the submitted text contains a token shaped
// like a schema key or enum code.
var ErrLeakage = errors.New("validator: schema-token leakage detected")

var (
	schemaKeyPattern = regexp.MustCompile(`\b[a-z][a-z0-9]*(?:_[a-z0-9]+){1,}\b`)
	enumCodePattern  = regexp.MustCompile(`\b[A-Z]{2,}(?:_[A-Z0-9]{2,})+\b`)
)

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases s, strips diacritics, and collapses whitespace, the
// normalization the name-coverage check is computed under.
func Normalize(s string) string {
	stripped, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		stripped = s
	}
	stripped = strings.ToLower(stripped)
	return strings.Join(strings.Fields(stripped), " ")
}

// MissingNameError carries the first required name found to be absent;
// it unwraps to ErrMissingName so callers can report which name failed.
type MissingNameError struct {
	Name string
}

func (e *MissingNameError) Error() string {
	return fmt.Sprintf("%v: %q", ErrMissingName, e.Name)
}

func (e *MissingNameError) Unwrap() error { return ErrMissingName }

// LeakageError carries the leaked token in Token; it unwraps to
// ErrLeakage so callers can report which token leaked.
type LeakageError struct {
	Token string
}

func (e *LeakageError) Error() string {
	return fmt.Sprintf("%v: %q", ErrLeakage, e.Token)
}

func (e *LeakageError) Unwrap() error { return ErrLeakage }

// CheckNameCoverage verifies that every name in names appears in caseText
// under Normalize. A partial-last-name fallback is permitted: if the full
// normalized name is absent, the last whitespace-separated token alone is
// accepted.
func CheckNameCoverage(names []string, caseText string) error {
	normalizedText := Normalize(caseText)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		normalizedName := Normalize(name)
		if strings.Contains(normalizedText, normalizedName) {
			continue
		}

		tokens := strings.Fields(normalizedName)
		lastToken := tokens[len(tokens)-1]
		if len(tokens) > 1 && containsWord(normalizedText, lastToken) {
			continue
		}
		return &MissingNameError{Name: name}
	}
	return nil
}

func containsWord(haystack, word string) bool {
	if word == "" {
		return false
	}
	for _, tok := range strings.Fields(haystack) {
		if tok == word {
			return true
		}
	}
	return false
}

// CheckLeakage rejects case text containing a schema-key-shaped or
// enum-code-shaped token.
func CheckLeakage(caseText string) error {
	if m := schemaKeyPattern.FindString(caseText); m != "" {
		return &LeakageError{Token: m}
	}
	if m := enumCodePattern.FindString(caseText); m != "" {
		return &LeakageError{Token: m}
	}
	return nil
}

// SimilarityWindow tracks a bounded history of recent submissions' word
// shingle sets for the soft similarity warning.
type SimilarityWindow struct {
	size      int
	threshold float64
	history   []map[string]struct{}
}

// NewSimilarityWindow builds a window holding at most size recent
// submissions, warning when Jaccard similarity reaches threshold.
func NewSimilarityWindow(size int, threshold float64) *SimilarityWindow {
	if size <= 0 {
		size = 50
	}
	if threshold <= 0 {
		threshold = 0.9
	}
	return &SimilarityWindow{size: size, threshold: threshold}
}

// Check computes the maximum Jaccard similarity between caseText and any
// submission currently in the window, then records caseText into the
// window. It never rejects; the bool return is a soft warning flag.
func (w *SimilarityWindow) Check(caseText string) (warn bool, maxSimilarity float64) {
	shingles := wordShingles(caseText, 3)

	for _, prior := range w.history {
		sim := jaccard(shingles, prior)
		if sim > maxSimilarity {
			maxSimilarity = sim
		}
	}

	w.history = append(w.history, shingles)
	if len(w.history) > w.size {
		w.history = w.history[len(w.history)-w.size:]
	}
	return maxSimilarity >= w.threshold, maxSimilarity
}

func wordShingles(text string, n int) map[string]struct{} {
	words := strings.Fields(Normalize(text))
	out := make(map[string]struct{})
	if len(words) < n {
		out[strings.Join(words, " ")] = struct{}{}
		return out
	}
	for i := 0; i+n <= len(words); i++ {
		out[strings.Join(words[i:i+n], " ")] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
