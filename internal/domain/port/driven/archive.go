package driven

// Archive is a read-only view of a review bundle's content archive. Domain
// logic never touches archive bytes directly; it only needs entry existence
// and line counts for anchor validation.
type Archive interface {
	Has(name string) bool
	// LineCount returns the number of lines in the named entry's text
	// content. It fails if the entry does not exist or cannot be read.
	LineCount(name string) (int, error)
}
