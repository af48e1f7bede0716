package thread

import "rtthread/kernel"

// Priority is a thread priority. Lower values are more urgent.
type Priority uint

const (
	// PriorityMin is the most urgent priority.
	PriorityMin Priority = 0
	// PriorityMax is the least urgent priority.
	PriorityMax Priority = kernel.MaxPriorities - 1
	// DefaultPriority is used when no priority is given.
	DefaultPriority Priority = 1
)

// Valid reports whether p is within [PriorityMin, PriorityMax].
func (p Priority) Valid() bool {
	return p <= PriorityMax
}
