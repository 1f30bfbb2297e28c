package entities

// IdentityMap is the batch-scoped 1:1 mapping from an original patient key
// to its anonymous identifier. Assignment order equals first-seen order of
// the key within the batch, so the map keeps explicit insertion order
// rather than relying on map iteration.
//
// The mapping lives only for the duration of a batch; it must never be
// persisted alongside the original identifier.
type IdentityMap struct {
	ids   map[string]string
	order []string
}

// NewIdentityMap creates an empty identity map.
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{ids: make(map[string]string)}
}

// Resolve returns the anonymous identifier for key, if assigned.
func (m *IdentityMap) Resolve(key string) (string, bool) {
	id, ok := m.ids[key]
	return id, ok
}

// Put records the assignment for key. First assignment wins; repeated puts
// for the same key are ignored.
func (m *IdentityMap) Put(key, anonymousID string) {
	if _, ok := m.ids[key]; ok {
		return
	}
	m.ids[key] = anonymousID
	m.order = append(m.order, key)
}

// Len returns the number of unique keys assigned.
func (m *IdentityMap) Len() int {
	return len(m.ids)
}

// AnonymousIDs returns the assigned identifiers in first-seen order.
func (m *IdentityMap) AnonymousIDs() []string {
	out := make([]string, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.ids[key])
	}
	return out
}
