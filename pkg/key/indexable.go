package key

// Keyed is implemented by rows that expose a primary key.
type Keyed[K comparable] interface {
	PrimaryKey() K
}

// Get returns the first row whose primary key equals id.
//
// Lookup is a linear scan over rows. There is no secondary index: callers that
// need repeated lookups on large tables should build their own map.
func Get[K comparable, R Keyed[K]](rows []R, id K) (R, bool) {
	return GetBy(rows, id, func(r R) K { return r.PrimaryKey() })
}

// GetMut returns a pointer to the first matching row so it can be edited in place.
func GetMut[K comparable, R Keyed[K]](rows []R, id K) (*R, bool) {
	return GetMutBy(rows, id, func(r R) K { return r.PrimaryKey() })
}

// GetBy is Get for rows whose key is extracted by keyOf.
func GetBy[K comparable, R any](rows []R, id K, keyOf func(R) K) (R, bool) {
	for _, r := range rows {
		if keyOf(r) == id {
			return r, true
		}
	}
	var zero R
	return zero, false
}

// GetMutBy is GetMut for rows whose key is extracted by keyOf.
func GetMutBy[K comparable, R any](rows []R, id K, keyOf func(R) K) (*R, bool) {
	for i := range rows {
		if keyOf(rows[i]) == id {
			return &rows[i], true
		}
	}
	return nil, false
}
