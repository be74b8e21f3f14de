package scanner

import "sort"

// ClassSet is a set of fully-qualified class names.
type ClassSet map[string]struct{}

// NewClassSet returns a set holding names.
func NewClassSet(names ...string) ClassSet {
	s := make(ClassSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name.
func (s ClassSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is in the set.
func (s ClassSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names.
func (s ClassSet) Len() int {
	return len(s)
}

// Union adds every name of other to s.
func (s ClassSet) Union(other ClassSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// Sorted returns the names in lexical order.
func (s ClassSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
