package types

// Collection is the storage engine's view of one JSONL collection file.
// Callers bind a Collection to a path, read or replace the whole file, and
// validate single lines against the collection's schema.
type Collection interface {
	// Read parses the whole file and returns its items: definitions first,
	// then data instances, each group in file order. Definitions may appear
	// anywhere in the file, including after the data lines they describe.
	// A missing file reads as an empty collection.
	Read() ([]Item, error)

	// Write atomically replaces the file with the given items, one JSON
	// object per line. An empty item list truncates the file.
	Write(items []Item) error

	// Append validates one item and adds it as a new final line without
	// rewriting the rest of the file.
	Append(item Item) error

	// ValidateLine checks one raw line against the collection's schema and
	// returns the parsed item. The file itself is not touched.
	ValidateLine(raw []byte) (Item, error)

	// Path returns the file path the collection is bound to.
	Path() string
}
