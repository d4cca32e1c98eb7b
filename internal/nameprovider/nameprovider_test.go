package nameprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type panickyProvider struct{}

func (panickyProvider) GivenName(Gender) string { panic("boom") }
func (panickyProvider) FamilyName() string      { panic("boom") }

type emptyProvider struct{}

func (emptyProvider) GivenName(Gender) string { return "" }
func (emptyProvider) FamilyName() string      { return "" }

func TestChainProviderFallsBackOnPanic(t *testing.T) {
	c := &ChainProvider{Primary: panickyProvider{}, Fallback: NewFallbackProvider()}
	assert.NotEmpty(t, c.GivenName(GenderAny))
	assert.NotEmpty(t, c.FamilyName())
}

func TestChainProviderFallsBackOnEmpty(t *testing.T) {
	c := &ChainProvider{Primary: emptyProvider{}, Fallback: NewFallbackProvider()}
	assert.NotEmpty(t, c.GivenName(GenderFemale))
	assert.NotEmpty(t, c.FamilyName())
}

func TestFallbackProviderNeverRepeatsSameNameTwiceInARow(t *testing.T) {
	f := NewFallbackProvider()
	a := f.GivenName(GenderMale)
	b := f.GivenName(GenderMale)
	assert.NotEqual(t, a, b)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Marie Dupont", FullName("Marie", "Dupont"))
}
