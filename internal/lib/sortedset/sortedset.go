// Package sortedset provides a sorted string set used for building the RPM
// manifest: entries stay sorted as they are added, and AddOne reports
// whether the value was actually inserted, which lets the caller treat a
// duplicate as the programming error it would be.
package sortedset

import "sort"

type String []string

// AddOne inserts x keeping the set sorted. The second return value is false
// if x was already present.
func (s String) AddOne(x string) (String, bool) {
	if s == nil {
		return []string{x}, true
	}
	i := sort.SearchStrings(s, x)
	if i == len(s) {
		s = append(s, x)
	} else if s[i] != x {
		s = append(s[:i], append([]string{x}, s[i:]...)...)
	} else {
		return s, false
	}
	return s, true
}
