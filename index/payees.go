package index

import (
	"strings"

	"golang.org/x/exp/slices"
)

// DefaultPayeeLimit caps Query results to bound response payloads.
const DefaultPayeeLimit = 50

// PayeeSet is a flat ranked set of payee names aggregated across
// documents. Matching is case-insensitive; ranking prefers recently and
// frequently seen payees. Recency is a process-wide monotonic tick
// assigned per insert, not wall-clock time, which keeps ordering stable
// and cheap.
//
// PayeeSet is not safe for concurrent use; Workspace serializes access.
type PayeeSet struct {
	entries map[string]*payeeEntry // keyed by folded name
	clock   uint64
}

type payeeEntry struct {
	display string
	folded  string
	sources map[Source]*payeeSource
}

type payeeSource struct {
	count    int
	lastSeen uint64
}

func (e *payeeEntry) total() int {
	n := 0
	for _, s := range e.sources {
		n += s.count
	}
	return n
}

func (e *payeeEntry) recency() uint64 {
	var max uint64
	for _, s := range e.sources {
		if s.lastSeen > max {
			max = s.lastSeen
		}
	}
	return max
}

// NewPayeeSet creates an empty payee set.
func NewPayeeSet() *PayeeSet {
	return &PayeeSet{entries: make(map[string]*payeeEntry)}
}

// Insert records one occurrence of the payee for the given source. The
// most recent insert's casing wins for display.
func (p *PayeeSet) Insert(payee string, src Source) {
	p.clock++
	folded := strings.ToLower(payee)

	entry, ok := p.entries[folded]
	if !ok {
		entry = &payeeEntry{folded: folded, sources: make(map[Source]*payeeSource)}
		p.entries[folded] = entry
	}
	entry.display = payee

	stat, ok := entry.sources[src]
	if !ok {
		stat = &payeeSource{}
		entry.sources[src] = stat
	}
	stat.count++
	stat.lastSeen = p.clock
}

// Remove undoes one Insert of the same (payee, source) pair. The entry
// disappears once its last contributing source is gone.
func (p *PayeeSet) Remove(payee string, src Source) error {
	folded := strings.ToLower(payee)

	entry, ok := p.entries[folded]
	if !ok {
		return ErrCorruptIndex
	}
	stat, ok := entry.sources[src]
	if !ok || stat.count <= 0 {
		return ErrCorruptIndex
	}

	stat.count--
	if stat.count == 0 {
		delete(entry.sources, src)
	}
	if len(entry.sources) == 0 {
		delete(p.entries, folded)
	}
	return nil
}

// Query returns payees matching the partial text, ranked. Prefix matches
// of the folded name come first, then substring matches; within each
// group most recent first, then most frequent, then folded name for
// determinism. A limit <= 0 applies DefaultPayeeLimit.
func (p *PayeeSet) Query(partial string, limit int) []string {
	if limit <= 0 {
		limit = DefaultPayeeLimit
	}
	folded := strings.ToLower(partial)

	var prefix, substring []*payeeEntry
	for _, entry := range p.entries {
		switch {
		case strings.HasPrefix(entry.folded, folded):
			prefix = append(prefix, entry)
		case folded != "" && strings.Contains(entry.folded, folded):
			substring = append(substring, entry)
		}
	}

	rank(prefix)
	rank(substring)

	results := make([]string, 0, len(prefix)+len(substring))
	for _, entry := range append(prefix, substring...) {
		results = append(results, entry.display)
		if len(results) >= limit {
			break
		}
	}
	return results
}

// All returns every payee's display name, sorted by folded name.
func (p *PayeeSet) All() []string {
	entries := make([]*payeeEntry, 0, len(p.entries))
	for _, entry := range p.entries {
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b *payeeEntry) int {
		return strings.Compare(a.folded, b.folded)
	})

	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.display
	}
	return names
}

// Len returns the number of distinct payees.
func (p *PayeeSet) Len() int {
	return len(p.entries)
}

func rank(entries []*payeeEntry) {
	slices.SortFunc(entries, func(a, b *payeeEntry) int {
		ar, br := a.recency(), b.recency()
		if ar != br {
			if ar > br {
				return -1
			}
			return 1
		}
		if at, bt := a.total(), b.total(); at != bt {
			return bt - at
		}
		return strings.Compare(a.folded, b.folded)
	})
}
