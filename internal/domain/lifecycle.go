package domain

// Lifecycle represents the administrative state of a configuration aggregate.
// Deleted records are retained for audit but excluded from all listings.
type Lifecycle string

const (
	LifecycleActive   Lifecycle = "active"
	LifecycleArchived Lifecycle = "archived"
	LifecycleDeleted  Lifecycle = "deleted"
)

// IsValid checks if the lifecycle state is valid
func (l Lifecycle) IsValid() bool {
	switch l {
	case LifecycleActive, LifecycleArchived, LifecycleDeleted:
		return true
	default:
		return false
	}
}
