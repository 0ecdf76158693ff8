package decision

import (
	"slices"

	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// Assignable returns how many of units can be matched to distinct hits,
// where each hit may only go to a unit its bucket lists. It is a bipartite
// matching, so restricted buckets never strand a hit that a different
// assignment could have placed.
func Assignable(buckets []Bucket, units []unit.ID) int {
	var slots []int
	for i, b := range buckets {
		n := min(b.Count, len(b.Eligible))
		for range n {
			slots = append(slots, i)
		}
	}
	owner := make(map[unit.ID]int, len(units))
	matched := 0
	for s := range slots {
		visited := make(map[unit.ID]bool, len(units))
		if augment(s, slots, buckets, units, owner, visited) {
			matched++
		}
	}
	return matched
}

func augment(slot int, slots []int, buckets []Bucket, units []unit.ID, owner map[unit.ID]int, visited map[unit.ID]bool) bool {
	for _, id := range buckets[slots[slot]].Eligible {
		if visited[id] || !slices.Contains(units, id) {
			continue
		}
		visited[id] = true
		prev, taken := owner[id]
		if !taken || augment(prev, slots, buckets, units, owner, visited) {
			owner[id] = slot
			return true
		}
	}
	return false
}

// Required is the number of casualties the buckets inflict: the largest
// assignable set over every eligible unit.
func Required(buckets []Bucket) int {
	return Assignable(buckets, Request{Buckets: buckets}.Eligible())
}
