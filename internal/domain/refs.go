package domain

// Reference-set helpers. Back-reference updates are not transactional
// with the primary record mutation, so every operation here must be
// idempotent: re-adding a present id or re-removing an absent id is a
// no-op. A retried sequence then converges instead of double-applying.

// AddRef returns refs with id appended if not already present.
// The second return reports whether the set changed.
func AddRef(refs []string, id string) ([]string, bool) {
	if ContainsRef(refs, id) {
		return refs, false
	}
	return append(refs, id), true
}

// RemoveRef returns refs with id removed, preserving order.
// The second return reports whether the set changed.
func RemoveRef(refs []string, id string) ([]string, bool) {
	for i, ref := range refs {
		if ref == id {
			out := make([]string, 0, len(refs)-1)
			out = append(out, refs[:i]...)
			out = append(out, refs[i+1:]...)
			return out, true
		}
	}
	return refs, false
}

// ContainsRef reports whether refs contains id.
func ContainsRef(refs []string, id string) bool {
	for _, ref := range refs {
		if ref == id {
			return true
		}
	}
	return false
}

// DiffRefs computes the pure set difference between old and new
// reference lists: toRemove = old − new, toAdd = new − old. Ids present
// in both lists appear in neither output, so an unchanged reference is
// never removed and re-added. Duplicates in the inputs are collapsed.
func DiffRefs(oldRefs, newRefs []string) (toRemove, toAdd []string) {
	oldSet := make(map[string]bool, len(oldRefs))
	for _, id := range oldRefs {
		oldSet[id] = true
	}
	newSet := make(map[string]bool, len(newRefs))
	for _, id := range newRefs {
		newSet[id] = true
	}

	seen := make(map[string]bool)
	for _, id := range oldRefs {
		if !newSet[id] && !seen[id] {
			toRemove = append(toRemove, id)
			seen[id] = true
		}
	}
	for _, id := range newRefs {
		if !oldSet[id] && !seen[id] {
			toAdd = append(toAdd, id)
			seen[id] = true
		}
	}
	return toRemove, toAdd
}

// DedupeRefs returns refs with duplicates removed, preserving first
// occurrence order.
func DedupeRefs(refs []string) []string {
	seen := make(map[string]bool, len(refs))
	out := make([]string, 0, len(refs))
	for _, id := range refs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
