package content

import "errors"

var (
	// ErrNotFound reports an unknown item id.
	ErrNotFound = errors.New("content item not found")
	// ErrVersionConflict reports that another operation committed first; the
	// caller should re-read and re-evaluate against the new version.
	ErrVersionConflict = errors.New("content item version conflict")
	// ErrNotRemovable reports an attempt to delete an item that is still in
	// the active lifecycle.
	ErrNotRemovable = errors.New("content item is not in a terminal or error state")
)
