package depot

import "time"

// entry is the in-memory form of a cached value. Recency is tracked by
// the LRU store that holds it.
type entry struct {
	value     []byte
	expiresAt time.Time
	tags      []string
}

// expired reports whether the entry's TTL has elapsed as of now.
func (e *entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

func (e *entry) hasTag(tag string) bool {
	for _, t := range e.tags {
		if t == tag {
			return true
		}
	}
	return false
}
