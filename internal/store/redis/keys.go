package redis

const (
	// KeyPrefix namespaces every key written by swarm-homepage.
	KeyPrefix = "swarm-homepage:"
	// KeySnapshotLatest holds the last successful snapshot.
	KeySnapshotLatest = KeyPrefix + "snapshot:latest"
)

// SnapshotKey returns the key of the last-known-good snapshot.
func SnapshotKey() string {
	return KeySnapshotLatest
}
