package db

// --------------------------------------------------------------------------
// Find Predicates
// --------------------------------------------------------------------------

// PredicateType identifies which rows a Find predicate selects
type PredicateType int

const (
	PredicateTypeEquality PredicateType = iota // key == Low
	PredicateTypeRange                         // Low <= key <= High
	PredicateTypeAll                           // every occupied row
)

func (p PredicateType) String() string {
	switch p {
	case PredicateTypeEquality:
		return "Equality"
	case PredicateTypeRange:
		return "Range"
	case PredicateTypeAll:
		return "All"
	default:
		return "Unknown"
	}
}

// Predicate selects the entries visited by a cursor.
// Use PredicateEquality, PredicateRange or PredicateAll to build one.
type Predicate struct {
	Type PredicateType
	Low  []byte // equality key or lower bound (inclusive)
	High []byte // upper bound (inclusive), only used for ranges
}

// PredicateEquality selects all entries whose key equals key
func PredicateEquality(key []byte) Predicate {
	return Predicate{Type: PredicateTypeEquality, Low: key}
}

// PredicateRange selects all entries with low <= key <= high
func PredicateRange(low, high []byte) Predicate {
	return Predicate{Type: PredicateTypeRange, Low: low, High: high}
}

// PredicateAll selects every entry
func PredicateAll() Predicate {
	return Predicate{Type: PredicateTypeAll}
}

// --------------------------------------------------------------------------
// Cursor Interface
// --------------------------------------------------------------------------

// Cursor iterates over the entries selected by a Predicate.
//
// Usage:
//
//	c, err := database.Find(db.PredicateAll())
//	if err != nil { ... }
//	defer c.Close()
//	for c.Next() {
//		fmt.Println(c.Key(), c.Value())
//	}
//	if err := c.Err(); err != nil { ... }
//
// Key and Value return copies that stay valid after the next call to Next.
type Cursor interface {
	// Next advances to the next matching entry and reports whether one was found.
	Next() bool
	// Key returns the key of the current entry.
	Key() []byte
	// Value returns the value of the current entry.
	Value() []byte
	// Err returns the error that stopped the iteration, if any.
	Err() error
	// Close ends the iteration. Subsequent calls to Next return false.
	Close()
}
