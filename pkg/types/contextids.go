package types

// ContextIDs is an ordered-insertion, duplicate-free set of context ids.
// All growth goes through With, which enforces the no-duplicate invariant
// structurally instead of relying on callers to check membership.
type ContextIDs []string

// NewContextIDs builds a ContextIDs set from ids, dropping duplicates while
// preserving first-sighting order.
func NewContextIDs(ids ...string) ContextIDs {
	out := ContextIDs{}
	for _, id := range ids {
		out = out.With(id)
	}
	return out
}

// Contains reports whether id is a member of the set.
func (c ContextIDs) Contains(id string) bool {
	for _, existing := range c {
		if existing == id {
			return true
		}
	}
	return false
}

// With returns a set containing id. Adding an already-present id is a no-op
// that returns the receiver unchanged; otherwise a new backing array is
// allocated so shared state is never mutated.
func (c ContextIDs) With(id string) ContextIDs {
	if id == "" || c.Contains(id) {
		return c
	}
	out := make(ContextIDs, len(c), len(c)+1)
	copy(out, c)
	return append(out, id)
}

// Intersects reports whether the set shares at least one id with ids.
func (c ContextIDs) Intersects(ids []string) bool {
	for _, id := range ids {
		if c.Contains(id) {
			return true
		}
	}
	return false
}
