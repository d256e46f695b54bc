package validator

// Validator validates a struct using its field tags.
type Validator interface {
	// Validate returns nil when data passes all tag rules, otherwise an
	// error describing the failing fields.
	Validate(data any) error
}

// ValuesError is implemented by validation errors that can expose a
// field-to-message map.
type ValuesError interface {
	error
	Values() map[string]string
}
