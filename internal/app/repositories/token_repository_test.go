package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigestToken(t *testing.T) {
	d := digestToken("eyJhbGciOiJIUzI1NiJ9.refresh")
	assert.Len(t, d, 64)
	assert.Equal(t, d, digestToken("eyJhbGciOiJIUzI1NiJ9.refresh"))
	assert.NotEqual(t, d, digestToken("eyJhbGciOiJIUzI1NiJ9.refresH"))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", digestToken(""))
}
