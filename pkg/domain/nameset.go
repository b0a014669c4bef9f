package domain

import "sort"

// NameSet is an insertion-ordered set of names.
// The zero value is an empty set ready to use.
type NameSet []string

// NewNameSet builds a set from names, keeping the first occurrence of each.
func NewNameSet(names ...string) NameSet {
	set := make(NameSet, 0, len(names))
	for _, n := range names {
		set.Add(n)
	}
	return set
}

// Contains reports whether name is in the set.
func (s NameSet) Contains(name string) bool {
	for _, n := range s {
		if n == name {
			return true
		}
	}
	return false
}

// Add appends name if absent. It returns false when name was already present.
func (s *NameSet) Add(name string) bool {
	if s.Contains(name) {
		return false
	}
	*s = append(*s, name)
	return true
}

// Remove deletes name, preserving the order of the remaining names.
// It returns false when name was not present.
func (s *NameSet) Remove(name string) bool {
	for i, n := range *s {
		if n == name {
			*s = append((*s)[:i:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of names in the set.
func (s NameSet) Len() int { return len(s) }

// Names returns a copy of the names in insertion order.
func (s NameSet) Names() []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Clone returns an independent copy of the set.
func (s NameSet) Clone() NameSet {
	if s == nil {
		return nil
	}
	return NameSet(s.Names())
}

// Difference returns the members of all that appear in none of the excluded sets,
// deduplicated and sorted.
func Difference(all []string, exclude ...NameSet) []string {
	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, name := range all {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		excluded := false
		for _, set := range exclude {
			if set.Contains(name) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// SortedUnique returns names deduplicated and sorted.
func SortedUnique(names []string) []string {
	return Difference(names)
}
