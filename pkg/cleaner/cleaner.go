// Package cleaner defines the interface shared by field content cleaners.
// A cleaner turns a captured page fragment into markup that can be stored
// in a flashcard field.
package cleaner

// Cleaner transforms captured HTML into flashcard field content.
type Cleaner interface {
	// Clean transforms the input HTML into field content.
	// Implementations that encode failures in the returned content
	// always return a nil error.
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}
