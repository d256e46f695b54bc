package uid

// NumberID generates unique numeric identifiers, typically for database rows.
type NumberID interface {
	// Generate returns a new unique int64 identifier.
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	// Generate returns a new unique string identifier.
	Generate() string
}
