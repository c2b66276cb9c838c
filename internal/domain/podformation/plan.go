package podformation

import (
	"errors"
	"fmt"
)

const (
	DefaultPodSize = 4
	MinPodSize     = 3
	MaxPodSize     = 6
)

var (
	ErrInvalidPodSize = errors.New("pod size out of range")
	ErrPlanMismatch   = errors.New("group size plan does not cover attendees")
)

// Plan is the group-size multiset chosen for a number of attendees.
type Plan struct {
	PodSize    int
	GroupSizes []int
	Leftover   int
}

// NewPlan splits total attendees into groups of podSize. A remainder is absorbed by growing
// that many groups to podSize+1 when enough groups exist and podSize+1 stays within MaxPodSize;
// otherwise the remainder is left over. A podSize of zero selects DefaultPodSize.
func NewPlan(total, podSize int) (Plan, error) {
	if podSize == 0 {
		podSize = DefaultPodSize
	}
	if podSize < MinPodSize || podSize > MaxPodSize {
		return Plan{}, fmt.Errorf("%w: pod size must be between %d and %d, got %d", ErrInvalidPodSize, MinPodSize, MaxPodSize, podSize)
	}
	if total < 0 {
		total = 0
	}

	plan := Plan{PodSize: podSize}
	if total < podSize {
		plan.Leftover = total
		return plan, nil
	}

	fullGroups := total / podSize
	remainder := total % podSize
	sizes := make([]int, fullGroups)
	for i := range sizes {
		sizes[i] = podSize
	}
	if remainder > 0 && remainder <= fullGroups && podSize+1 <= MaxPodSize {
		for i := 0; i < remainder; i++ {
			sizes[i]++
		}
		remainder = 0
	}

	plan.GroupSizes = sizes
	plan.Leftover = remainder
	return plan, nil
}

// Seats is the number of attendees the plan places into groups.
func (p Plan) Seats() int {
	total := 0
	for _, size := range p.GroupSizes {
		total += size
	}
	return total
}
