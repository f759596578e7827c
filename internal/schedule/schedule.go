// Package schedule orders accepted URLs so consecutive submissions spread
// across target domains.
package schedule

import (
	"github.com/jmartens/bulkcrawl/internal/classify"
)

// DomainGroups partitions URLs into per-domain buckets. Buckets preserve
// input order and the groups themselves keep first-seen order, which makes
// the interleaved output deterministic.
type DomainGroups struct {
	order   []string
	buckets map[string][]string
}

// Group buckets urls by their lowercased domain in a single pass. URLs whose
// domain cannot be parsed land in the "" bucket; upstream filtering normally
// prevents that.
func Group(urls []string) *DomainGroups {
	g := &DomainGroups{buckets: make(map[string][]string)}
	for _, u := range urls {
		domain := classify.Domain(u)
		if _, seen := g.buckets[domain]; !seen {
			g.order = append(g.order, domain)
		}
		g.buckets[domain] = append(g.buckets[domain], u)
	}
	return g
}

// Len returns the number of distinct domains.
func (g *DomainGroups) Len() int {
	return len(g.order)
}

// Interleave merges the buckets round-robin: each round takes the front URL
// of every group that still has URLs, visiting groups in first-seen order,
// until all groups are exhausted. Every input URL appears exactly once and
// within a domain the original relative order is preserved.
func (g *DomainGroups) Interleave() []string {
	total := 0
	for _, urls := range g.buckets {
		total += len(urls)
	}
	out := make([]string, 0, total)

	active := append([]string(nil), g.order...)
	offsets := make(map[string]int, len(g.buckets))
	for len(active) > 0 {
		next := active[:0]
		for _, domain := range active {
			bucket := g.buckets[domain]
			i := offsets[domain]
			out = append(out, bucket[i])
			if i+1 < len(bucket) {
				offsets[domain] = i + 1
				next = append(next, domain)
			}
		}
		active = next
	}
	return out
}
