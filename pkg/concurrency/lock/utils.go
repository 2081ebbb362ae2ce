package lock

import "slices"

// removeWhere drops the elements of m[key] matching del and removes the key
// once its slice is empty. The stored slice is never modified in place, so
// slices handed out earlier stay intact.
func removeWhere[K comparable, V any](m map[K][]V, key K, del func(V) bool) {
	s, ok := m[key]
	if !ok {
		return
	}
	if kept := slices.DeleteFunc(slices.Clone(s), del); len(kept) > 0 {
		m[key] = kept
	} else {
		delete(m, key)
	}
}
