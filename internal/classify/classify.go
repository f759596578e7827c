// Package classify decides, per URL, whether it is safe and useful to submit
// and whether the remote crawler should render it in a browser.
package classify

import (
	"fmt"
	"net/url"
	"strings"
)

// Decision is the outcome of classifying a single URL.
type Decision struct {
	Skip   bool
	Reason string
}

// Rules holds the configured match lists. All matching is substring based;
// domain entries match both directions so "google.com" and
// "accounts.google.com" block each other regardless of which side is
// configured.
type Rules struct {
	SkipDomains    []string
	SkipPatterns   []string
	BrowserDomains []string
}

// Classifier applies Rules to URLs. It is stateless and safe for concurrent use.
type Classifier struct {
	rules Rules
}

// New builds a Classifier from the configured rule lists.
func New(rules Rules) *Classifier {
	return &Classifier{rules: rules}
}

// Domain extracts the lowercased host component of rawURL. It returns ""
// when the URL cannot be parsed or has no host.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// Classify reports whether rawURL should be excluded from submission.
// Checks run in a fixed order and the first match wins: parse validity,
// skip-domain list, skip-pattern list, scheme.
func (c *Classifier) Classify(rawURL string) Decision {
	domain := Domain(rawURL)
	if domain == "" {
		return Decision{Skip: true, Reason: "invalid URL"}
	}

	for _, skipDomain := range c.rules.SkipDomains {
		if skipDomain == "" {
			continue
		}
		if strings.Contains(domain, skipDomain) || strings.Contains(skipDomain, domain) {
			return Decision{Skip: true, Reason: fmt.Sprintf("domain %q in skip list", skipDomain)}
		}
	}

	lowered := strings.ToLower(rawURL)
	for _, pattern := range c.rules.SkipPatterns {
		if pattern == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(pattern)) {
			return Decision{Skip: true, Reason: fmt.Sprintf("matches skip pattern %q", pattern)}
		}
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return Decision{Skip: true, Reason: "not HTTP/HTTPS"}
	}

	return Decision{}
}

// NeedsBrowser reports whether the URL's domain is on the browser-rendering
// list. It is evaluated independently of Classify; a skipped URL can still
// report true here.
func (c *Classifier) NeedsBrowser(rawURL string) bool {
	domain := Domain(rawURL)
	if domain == "" {
		return false
	}
	for _, browserDomain := range c.rules.BrowserDomains {
		if browserDomain != "" && strings.Contains(domain, browserDomain) {
			return true
		}
	}
	return false
}
