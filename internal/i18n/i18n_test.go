package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTablesCoverTheSameKeys(t *testing.T) {
	for key := range translations[English] {
		_, ok := translations[Hindi][key]
		assert.True(t, ok, "hindi is missing %q", key)
	}
	for key := range translations[Hindi] {
		_, ok := translations[English][key]
		assert.True(t, ok, "english is missing %q", key)
	}
}

func TestLookupFallbacks(t *testing.T) {
	assert.Equal(t, "सही!", For("hindi").T("correct"))
	assert.Equal(t, "Correct!", For("klingon").T("correct"))
	assert.Equal(t, English, For("").Language())
	assert.Equal(t, "no_such_key", For("hindi").T("no_such_key"))
	assert.Equal(t, "Round 2 of 5", For("english").Tf("round", 2, 5))
	assert.Equal(t, "हिन्दी", LanguageName(Hindi))
}
