package transmission

import (
	"fmt"
	"sort"
	"strings"
)

// AggregateError reports per-member failures from one collection
// transmission. Members absent from Failures transmitted successfully and
// remain durable and resolvable; callers should inspect the map rather
// than treat the whole operation as failed.
type AggregateError struct {
	Failures map[int]error
}

func (e *AggregateError) Error() string {
	members := e.FailedMembers()
	parts := make([]string, 0, len(members))
	for _, member := range members {
		parts = append(parts, fmt.Sprintf("member %d: %v", member, e.Failures[member]))
	}
	return fmt.Sprintf("transmission failed for %d member(s): %s", len(members), strings.Join(parts, "; "))
}

// FailedMembers returns the failed member indices in ascending order.
func (e *AggregateError) FailedMembers() []int {
	members := make([]int, 0, len(e.Failures))
	for member := range e.Failures {
		members = append(members, member)
	}
	sort.Ints(members)
	return members
}
