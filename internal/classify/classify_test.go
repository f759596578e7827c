package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() Rules {
	return Rules{
		SkipDomains:    []string{"localhost", "accounts.google.com", "duckduckgo.com"},
		SkipPatterns:   []string{"/login", "/signin", "?token="},
		BrowserDomains: []string{"nuxt.com", "vuejs.org"},
	}
}

func TestClassifyInvalidURL(t *testing.T) {
	t.Parallel()

	c := New(testRules())

	for _, raw := range []string{"", "not a url at all", "/relative/path", "mailto:someone"} {
		d := c.Classify(raw)
		require.True(t, d.Skip, "expected %q to be skipped", raw)
		assert.Equal(t, "invalid URL", d.Reason)
	}
}

func TestClassifyInvalidURLIgnoresRules(t *testing.T) {
	t.Parallel()

	// No rules configured at all; parse validity is checked first.
	c := New(Rules{})
	d := c.Classify("just-text")
	require.True(t, d.Skip)
	assert.Equal(t, "invalid URL", d.Reason)
}

func TestClassifySkipDomains(t *testing.T) {
	t.Parallel()

	c := New(testRules())

	tests := []struct {
		name string
		url  string
	}{
		{"exact match", "http://accounts.google.com/"},
		{"rule is substring of domain", "http://eu.duckduckgo.com/q"},
		{"domain is substring of rule", "http://google.com/"},
		{"localhost with port", "http://localhost:8001/health"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := c.Classify(tc.url)
			require.True(t, d.Skip, "expected %q to be skipped", tc.url)
			assert.Contains(t, d.Reason, "skip list")
		})
	}
}

func TestClassifyDomainRuleWinsOverPattern(t *testing.T) {
	t.Parallel()

	c := New(testRules())

	// URL matches both the accounts.google.com domain rule and the /signin
	// pattern; the domain rule is evaluated first and its reason is reported.
	d := c.Classify("http://accounts.google.com/signin?continue=x")
	require.True(t, d.Skip)
	assert.Contains(t, d.Reason, "accounts.google.com")
	assert.NotContains(t, d.Reason, "/signin")
}

func TestClassifySkipPatterns(t *testing.T) {
	t.Parallel()

	c := New(testRules())

	d := c.Classify("https://example.com/LOGIN?next=home")
	require.True(t, d.Skip, "pattern match is case-insensitive")
	assert.Contains(t, d.Reason, "/login")

	d = c.Classify("https://example.com/cb?token=abc")
	require.True(t, d.Skip)
	assert.Contains(t, d.Reason, "?token=")
}

func TestClassifyScheme(t *testing.T) {
	t.Parallel()

	c := New(testRules())

	d := c.Classify("ftp://example.com/file.txt")
	require.True(t, d.Skip)
	assert.Equal(t, "not HTTP/HTTPS", d.Reason)
}

func TestClassifyAccepts(t *testing.T) {
	t.Parallel()

	c := New(testRules())

	for _, raw := range []string{
		"https://example.com/docs",
		"http://news.ycombinator.com/item?id=1",
	} {
		d := c.Classify(raw)
		assert.False(t, d.Skip, "expected %q to pass, got reason %q", raw, d.Reason)
		assert.Empty(t, d.Reason)
	}
}

func TestNeedsBrowser(t *testing.T) {
	t.Parallel()

	c := New(testRules())

	assert.True(t, c.NeedsBrowser("https://nuxt.com/docs"))
	assert.True(t, c.NeedsBrowser("https://ui.nuxt.com/components"))
	assert.False(t, c.NeedsBrowser("https://example.com/docs"))
	assert.False(t, c.NeedsBrowser("not a url"))
}

func TestNeedsBrowserIndependentOfSkip(t *testing.T) {
	t.Parallel()

	c := New(Rules{
		SkipDomains:    []string{"nuxt.com"},
		BrowserDomains: []string{"nuxt.com"},
	})

	url := "https://nuxt.com/docs"
	require.True(t, c.Classify(url).Skip)
	assert.True(t, c.NeedsBrowser(url))
}

func TestDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"http://Example.COM/path", "example.com"},
		{"https://sub.example.com:8443/", "sub.example.com:8443"},
		{"nonsense", ""},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Domain(tc.raw), "Domain(%q)", tc.raw)
	}
}
