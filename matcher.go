package depot

import (
	"path"
	"strings"
)

// Matcher selects cache keys for bulk invalidation. It is a closed
// variant: construct one with Prefix or Glob rather than inspecting the
// argument's runtime shape at the call site.
type Matcher struct {
	kind    matcherKind
	pattern string
}

type matcherKind int

const (
	matchPrefix matcherKind = iota
	matchGlob
)

// Prefix matches every key that starts with the literal prefix.
func Prefix(prefix string) Matcher {
	return Matcher{kind: matchPrefix, pattern: prefix}
}

// Glob matches keys against a path.Match pattern (e.g. "quote:*").
// A malformed pattern matches nothing.
func Glob(pattern string) Matcher {
	return Matcher{kind: matchGlob, pattern: pattern}
}

func (m Matcher) matches(key string) bool {
	switch m.kind {
	case matchPrefix:
		return strings.HasPrefix(key, m.pattern)
	case matchGlob:
		ok, err := path.Match(m.pattern, key)
		return err == nil && ok
	default:
		return false
	}
}
