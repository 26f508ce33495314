// Package reconcile merges freshly fetched remote tables into persisted local
// tables. Rows are matched by their remote key; remote columns always take the
// incoming value while local annotation columns keep the persisted value.
package reconcile

import (
	"cmp"
	"reflect"
	"slices"
)

// Keep selects which occurrence survives when a key repeats inside one table
type Keep int

const (
	// KeepFirst keeps the first occurrence (tracker entities)
	KeepFirst Keep = iota
	// KeepLast keeps the last occurrence (commits seen on several branches)
	KeepLast
)

// Schema describes how rows of one entity are matched, merged and ordered
type Schema[T any, K cmp.Ordered] struct {
	// Key returns the remote-stable identifier of a row
	Key func(T) K
	// Normalize canonicalizes placeholder values before keys are compared
	Normalize func(*T)
	// CopyLocal copies local annotation columns from the persisted row
	CopyLocal func(dst *T, prior T)
	// Defaults sets local annotation columns on newly created rows
	Defaults func(*T)
	// Compare orders rows; ties are broken by key
	Compare func(a, b T) int
	Keep    Keep
	// RemoteID, when set, returns an upstream id that survives key changes.
	// A persisted row whose key vanished but whose id comes back under a new
	// key is treated as that row, not retained next to it.
	RemoteID func(T) (int, bool)
}

// Collision reports a key that appeared more than once in one input table
type Collision[K cmp.Ordered] struct {
	Key         K
	Occurrences int
}

// Outcome is the merged table plus what happened to produce it
type Outcome[T any, K cmp.Ordered] struct {
	Rows       []T
	Added      int // keys new to the local table
	Updated    int // matched keys whose remote columns changed
	Unchanged  int // matched keys with identical rows
	Retained   int // local rows the remote did not return
	Collisions []Collision[K]
}

// Merge reconciles incoming against existing.
//
// existing may be nil (first sync): incoming becomes the table with defaults
// applied. An empty incoming table returns existing unchanged.
func Merge[T any, K cmp.Ordered](existing, incoming []T, s Schema[T, K]) Outcome[T, K] {
	if len(incoming) == 0 {
		return Outcome[T, K]{
			Rows:     slices.Clone(existing),
			Retained: len(existing),
		}
	}

	prior, existingCollisions := Dedup(normalized(existing, s), s)
	fresh, incomingCollisions := Dedup(normalized(incoming, s), s)

	out := Outcome[T, K]{
		Rows:       make([]T, 0, len(prior)+len(fresh)),
		Collisions: append(existingCollisions, incomingCollisions...),
	}

	freshKeys := make(map[K]bool, len(fresh))
	freshIDs := make(map[int]bool)
	for _, row := range fresh {
		freshKeys[s.Key(row)] = true
		if id, ok := remoteID(s, row); ok {
			freshIDs[id] = true
		}
	}

	priorByKey := make(map[K]T, len(prior))
	priorByID := make(map[int]T)
	for _, row := range prior {
		key := s.Key(row)
		priorByKey[key] = row
		if id, ok := remoteID(s, row); ok && !freshKeys[key] {
			priorByID[id] = row
		}
	}

	for _, row := range fresh {
		old, ok := priorByKey[s.Key(row)]
		if !ok {
			if id, has := remoteID(s, row); has {
				old, ok = priorByID[id]
				delete(priorByID, id)
			}
		}
		if !ok {
			if s.Defaults != nil {
				s.Defaults(&row)
			}
			out.Added++
			out.Rows = append(out.Rows, row)
			continue
		}

		if s.CopyLocal != nil {
			s.CopyLocal(&row, old)
		}
		if reflect.DeepEqual(row, old) {
			out.Unchanged++
		} else {
			out.Updated++
		}
		out.Rows = append(out.Rows, row)
	}

	// rows the remote no longer returns (e.g. older than a "since" cutoff),
	// unless their remote id came back under another key
	for _, row := range prior {
		if freshKeys[s.Key(row)] {
			continue
		}
		if id, ok := remoteID(s, row); ok && freshIDs[id] {
			continue
		}
		out.Rows = append(out.Rows, row)
		out.Retained++
	}

	Sort(out.Rows, s)
	return out
}

// Dedup removes repeated keys following the schema's Keep rule.
// The survivor stays at the position of the first occurrence.
func Dedup[T any, K cmp.Ordered](rows []T, s Schema[T, K]) ([]T, []Collision[K]) {
	index := make(map[K]int, len(rows))
	counts := make(map[K]int)
	result := make([]T, 0, len(rows))

	for _, row := range rows {
		key := s.Key(row)
		counts[key]++
		if i, ok := index[key]; ok {
			if s.Keep == KeepLast {
				result[i] = row
			}
			continue
		}
		index[key] = len(result)
		result = append(result, row)
	}

	var collisions []Collision[K]
	for key, n := range counts {
		if n > 1 {
			collisions = append(collisions, Collision[K]{Key: key, Occurrences: n})
		}
	}
	slices.SortFunc(collisions, func(a, b Collision[K]) int { return cmp.Compare(a.Key, b.Key) })

	return result, collisions
}

// Sort orders rows by the schema's canonical order, then by key
func Sort[T any, K cmp.Ordered](rows []T, s Schema[T, K]) {
	slices.SortStableFunc(rows, func(a, b T) int {
		if s.Compare != nil {
			if c := s.Compare(a, b); c != 0 {
				return c
			}
		}
		return cmp.Compare(s.Key(a), s.Key(b))
	})
}

func remoteID[T any, K cmp.Ordered](s Schema[T, K], row T) (int, bool) {
	if s.RemoteID == nil {
		return 0, false
	}
	return s.RemoteID(row)
}

func normalized[T any, K cmp.Ordered](rows []T, s Schema[T, K]) []T {
	out := slices.Clone(rows)
	if s.Normalize == nil {
		return out
	}
	for i := range out {
		s.Normalize(&out[i])
	}
	return out
}

// ComparePtr orders optional values with nil last
func ComparePtr[V cmp.Ordered](a, b *V) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return cmp.Compare(*a, *b)
	}
}
