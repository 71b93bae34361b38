package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPassword(t *testing.T) {
	cases := map[string]bool{
		"pw123456":               true,
		"short1":                 false,
		"onlyletters":            false,
		"12345678":               false,
		strings.Repeat("a1", 40): false,
	}
	for pw, want := range cases {
		assert.Equal(t, want, ValidPassword(pw), pw)
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@x.com"))
	assert.True(t, ValidEmail("  Ada@Example.ORG "))
	assert.False(t, ValidEmail("a@x"))
	assert.False(t, ValidEmail(""))
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("Ada"))
	assert.False(t, ValidName(" a "))
	assert.False(t, ValidName(strings.Repeat("n", NameMaxLength+1)))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.org", NormalizeEmail("  Ada@Example.ORG\n"))
	assert.False(t, ValidEmail(strings.Repeat("a", EmailMaxLength)+"@x.com"))
}
