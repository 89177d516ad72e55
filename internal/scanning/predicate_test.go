package scanning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicates(t *testing.T) {
	assert.True(t, AcceptAll(""))
	assert.True(t, AcceptAll("anything"))

	exact := MatchExact("abc")
	assert.True(t, exact("abc"))
	assert.False(t, exact("abcd"))

	prefix := MatchPrefix("https://")
	assert.True(t, prefix("https://example.com"))
	assert.False(t, prefix("http://example.com"))
}

func TestMatchRegexp(t *testing.T) {
	t.Run("empty accepts all", func(t *testing.T) {
		p, err := MatchRegexp("")
		require.NoError(t, err)
		assert.True(t, p("whatever"))
	})

	t.Run("pattern", func(t *testing.T) {
		p, err := MatchRegexp(`https://example\.com/.*`)
		require.NoError(t, err)
		assert.True(t, p("https://example.com/activate"))
		assert.False(t, p("https://evil.com/https://example.com/"))
	})

	t.Run("partial match is rejected", func(t *testing.T) {
		p, err := MatchRegexp(`WIFI:S:\w+;`)
		require.NoError(t, err)
		assert.True(t, p("WIFI:S:home;"))
		assert.False(t, p("WIFI:S:home;P:secret;;"))
		assert.False(t, p("xWIFI:S:home;"))
	})

	t.Run("alternation is anchored as a whole", func(t *testing.T) {
		p, err := MatchRegexp(`abc|def`)
		require.NoError(t, err)
		assert.True(t, p("def"))
		assert.False(t, p("abcdef"))
	})

	t.Run("explicit anchors still work", func(t *testing.T) {
		p, err := MatchRegexp(`^https://.*$`)
		require.NoError(t, err)
		assert.True(t, p("https://example.com"))
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := MatchRegexp(`(`)
		assert.Error(t, err)
	})
}
