package kv

// KeyIndex maps natural keys of parent records to ids assigned during an
// import.
type KeyIndex interface {
	// Open prepares the index for use.
	Open() error

	// Close releases resources of the index.
	Close() error

	// Add saves an id under a key. It returns false and keeps the old id if
	// the key already exists.
	Add(key string, id int64) (bool, error)

	// Get returns an id for a key. The second value is false if the key is
	// unknown.
	Get(key string) (int64, bool, error)
}
