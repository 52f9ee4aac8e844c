// Package catalog holds the ordered list of selectable ink colors.
//
// A Catalog is immutable once built. Engines borrow it read-only for the
// duration of a single question.
package catalog

import (
	"fmt"
	"strings"
)

// Entry is a single selectable color.
type Entry struct {
	// Key is the language-neutral identifier ("red", "green", ...).
	Key string
	// Name is the localized display name.
	Name string
	// RGB is the ink color used when the word is drawn.
	RGB [3]uint8
	// Alternatives are phonetic or alternate-language spellings used by
	// transcript matching.
	Alternatives []string
}

// Catalog is an ordered, read-only list of entries.
type Catalog struct {
	entries []Entry
}

// New copies entries into a Catalog. Keys must be unique and non-empty.
func New(entries []Entry) (Catalog, error) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for i, e := range entries {
		key := normalize(e.Key)
		if key == "" {
			return Catalog{}, fmt.Errorf("entry %d: empty key", i)
		}
		if _, dup := seen[key]; dup {
			return Catalog{}, fmt.Errorf("entry %d: duplicate key %q", i, key)
		}
		seen[key] = struct{}{}

		alts := make([]string, 0, len(e.Alternatives))
		for _, a := range e.Alternatives {
			if a = strings.TrimSpace(a); a != "" {
				alts = append(alts, a)
			}
		}
		e.Key = key
		e.Alternatives = alts
		if e.Name == "" {
			e.Name = key
		}
		out = append(out, e)
	}
	return Catalog{entries: out}, nil
}

// MustNew is New that panics on error. Used for literals in tests and defaults.
func MustNew(entries []Entry) Catalog {
	c, err := New(entries)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of entries.
func (c Catalog) Len() int { return len(c.entries) }

// Entry returns the entry at index i.
func (c Catalog) Entry(i int) Entry { return c.entries[i] }

// Valid reports whether i addresses an entry.
func (c Catalog) Valid(i int) bool { return i >= 0 && i < len(c.entries) }

// Entries returns a copy of all entries.
func (c Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Keys returns the entry keys in catalog order.
func (c Catalog) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

// IndexOfKey returns the index of the entry with the given key.
// The comparison ignores case and surrounding whitespace.
func (c Catalog) IndexOfKey(key string) (int, bool) {
	key = normalize(key)
	for i, e := range c.entries {
		if e.Key == key {
			return i, true
		}
	}
	return -1, false
}

// Match returns the first entry whose display name or any alternative is
// contained in the transcript, or contains the transcript.
//
// Short alternatives can match inside unrelated words; this is accepted.
func (c Catalog) Match(transcript string) (int, bool) {
	t := normalize(transcript)
	if t == "" {
		return -1, false
	}
	for i, e := range c.entries {
		if contains(t, e.Name) {
			return i, true
		}
		for _, alt := range e.Alternatives {
			if contains(t, alt) {
				return i, true
			}
		}
	}
	return -1, false
}

func contains(transcript, candidate string) bool {
	candidate = normalize(candidate)
	if candidate == "" {
		return false
	}
	return strings.Contains(transcript, candidate) || strings.Contains(candidate, transcript)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
