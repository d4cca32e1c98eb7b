// Package nameprovider supplies the personal names the target generator
// embeds in decedent, spouse, child, and professional-observer identity
// subtrees. It wraps an external name-generation library behind a narrow
// interface and falls back to a small built-in list when that library is
// unavailable or returns nothing usable.
package nameprovider

import (
	"fmt"

	"github.com/Pallinder/go-randomdata"
)

// Gender biases the given-name draw. GenderAny lets the provider choose.
type Gender int

const (
	GenderAny Gender = iota
	GenderFemale
	GenderMale
)

// Provider draws French-plausible person names.
type Provider interface {
	GivenName(g Gender) string
	FamilyName() string
}

// RandomDataProvider wraps github.com/Pallinder/go-randomdata.
type RandomDataProvider struct{}

// GivenName returns a first name, optionally biased by gender.
func (RandomDataProvider) GivenName(g Gender) string {
	switch g {
	case GenderFemale:
		return randomdata.FirstName(randomdata.Female)
	case GenderMale:
		return randomdata.FirstName(randomdata.Male)
	default:
		return randomdata.FirstName(randomdata.RandomGender)
	}
}

// FamilyName returns a surname.
func (RandomDataProvider) FamilyName() string {
	return randomdata.LastName()
}

// FallbackProvider cycles through a small curated list of common French
// names. It never fails and never panics.
type FallbackProvider struct {
	givenFemale []string
	givenMale   []string
	family      []string
	i           int
}

// NewFallbackProvider returns a FallbackProvider seeded with a built-in
// curated name list.
func NewFallbackProvider() *FallbackProvider {
	return &FallbackProvider{
		givenFemale: []string{"Marie", "Camille", "Isabelle", "Sophie", "Claire", "Nathalie", "Anne", "Juliette"},
		givenMale:   []string{"Jean", "Pierre", "Michel", "Philippe", "Laurent", "Nicolas", "Olivier", "Thomas"},
		family:      []string{"Dupont", "Lefebvre", "Moreau", "Girard", "Bonnet", "Rousseau", "Lambert", "Fontaine"},
	}
}

func (f *FallbackProvider) GivenName(g Gender) string {
	f.i++
	switch g {
	case GenderFemale:
		return f.givenFemale[f.i%len(f.givenFemale)]
	case GenderMale:
		return f.givenMale[f.i%len(f.givenMale)]
	default:
		pool := f.givenFemale
		if f.i%2 == 0 {
			pool = f.givenMale
		}
		return pool[f.i%len(pool)]
	}
}

func (f *FallbackProvider) FamilyName() string {
	f.i++
	return f.family[f.i%len(f.family)]
}

// ChainProvider tries Primary first and falls back to Fallback whenever
// Primary panics or returns an empty string.
type ChainProvider struct {
	Primary  Provider
	Fallback Provider
}

// NewChainProvider builds a ChainProvider over go-randomdata with the
// built-in list as fallback.
func NewChainProvider() *ChainProvider {
	return &ChainProvider{Primary: RandomDataProvider{}, Fallback: NewFallbackProvider()}
}

func (c *ChainProvider) GivenName(g Gender) (name string) {
	defer func() {
		if r := recover(); r != nil || name == "" {
			name = c.Fallback.GivenName(g)
		}
	}()
	name = c.Primary.GivenName(g)
	return name
}

func (c *ChainProvider) FamilyName() (name string) {
	defer func() {
		if r := recover(); r != nil || name == "" {
			name = c.Fallback.FamilyName()
		}
	}()
	name = c.Primary.FamilyName()
	return name
}

// FullName joins a given and family name the way the rest of the system
// expects personal-name leaves to read.
func FullName(given, family string) string {
	return fmt.Sprintf("%s %s", given, family)
}
