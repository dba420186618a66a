package environment

// RemovalPolicy decides what happens to stateful resources on teardown.
type RemovalPolicy int

const (
	Retain RemovalPolicy = iota
	Destroy
	Snapshot
)

func (p RemovalPolicy) String() string {
	switch p {
	case Destroy:
		return "destroy"
	case Snapshot:
		return "snapshot"
	default:
		return "retain"
	}
}

// BucketRemovalPolicy is the teardown policy for the primary storage bucket.
// Anything that is not a known non-production environment is retained.
func BucketRemovalPolicy(name Name) RemovalPolicy {
	switch name {
	case Production:
		return Retain
	case Staging:
		return Destroy
	default:
		return Retain
	}
}
