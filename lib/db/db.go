package db

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplFlatFile Implementation = "flatfile"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureInsert       Feature = 1 << iota // Support for Insert operations
	FeatureGet                              // Support for Get operations
	FeatureUpdate                           // Support for Update operations
	FeatureDelete                           // Support for Delete operations
	FeatureFind                             // Support for Find (cursor) operations
	FeatureBinarySearch                     // Lookups use binary search instead of a linear scan
	FeatureDestroy                          // Support for Destroy operations
)

// AllFeatures lists every known feature in declaration order
var AllFeatures = []Feature{
	FeatureInsert,
	FeatureGet,
	FeatureUpdate,
	FeatureDelete,
	FeatureFind,
	FeatureBinarySearch,
	FeatureDestroy,
}

func (f Feature) String() string {
	switch f {
	case FeatureInsert:
		return "Insert"
	case FeatureGet:
		return "Get"
	case FeatureUpdate:
		return "Update"
	case FeatureDelete:
		return "Delete"
	case FeatureFind:
		return "Find"
	case FeatureBinarySearch:
		return "BinarySearch"
	case FeatureDestroy:
		return "Destroy"
	default:
		return "Unknown"
	}
}

// MarshalText renders features by name (e.g. in JSON)
func (f Feature) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for fixed-width key-value database implementations.
// Keys and values are raw byte slices whose length must match the key and value
// size the database was created with.
// Every mutating operation returns the number of affected rows together with an error.
// Callers must check the error before trusting the count or a returned value.
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Insert stores a new entry. Duplicate keys are allowed unless the implementation
	// enforces an ordering (e.g. sorted mode), in which case ErrSortedOrderViolation is returned.
	Insert(key, value []byte) (count int, err error)

	// Update overwrites the value of every entry matching key.
	// If no entry matches, the entry is inserted instead (upsert).
	Update(key, value []byte) (count int, err error)

	// Delete removes all entries matching key and returns how many were removed.
	// ErrItemNotFound is returned if nothing matched.
	Delete(key []byte) (count int, err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves a copy of the value stored for key.
	// ErrItemNotFound is returned if no entry matches.
	Get(key []byte) (value []byte, err error)

	// Find opens a cursor over all entries matching the predicate.
	Find(predicate Predicate) (cursor Cursor, err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Returns true if the feature is supported, false otherwise.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// --------------------------------------------------------------------------
	// Lifecycle
	// --------------------------------------------------------------------------

	// Close releases all resources held by the database. The data stays on disk.
	Close() (err error)

	// Destroy closes the database and removes its backing storage.
	Destroy() (err error)
}
