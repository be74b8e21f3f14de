package scanner

import "strings"

// Matcher decides which requested namespaces a class name belongs to.
type Matcher interface {
	// Match calls emit once for every namespace className belongs to.
	Match(className string, emit func(namespace string))
}

// PrefixMatcher matches class names by plain, case-sensitive string prefix.
// "com.app" therefore also matches "com.application.Main".
type PrefixMatcher []string

// NewPrefixMatcher returns a matcher for the given namespaces, dropping duplicates.
func NewPrefixMatcher(namespaces ...string) PrefixMatcher {
	seen := make(map[string]struct{}, len(namespaces))
	m := make(PrefixMatcher, 0, len(namespaces))
	for _, ns := range namespaces {
		if _, ok := seen[ns]; ok {
			continue
		}
		seen[ns] = struct{}{}
		m = append(m, ns)
	}
	return m
}

// Match emits every prefix className starts with.
func (m PrefixMatcher) Match(className string, emit func(namespace string)) {
	for _, prefix := range m {
		if strings.HasPrefix(className, prefix) {
			emit(prefix)
		}
	}
}
