package models

// Revision is a row before and after an update.
type Revision[T any] struct {
	Before T
	After  T
}
