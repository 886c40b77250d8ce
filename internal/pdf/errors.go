package pdf

import "errors"

var (
	// ErrUnreadableDocument indicates the PDF could not be opened or parsed.
	// This is fatal for the whole detection run.
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrPageOutOfRange indicates a page index beyond the document's page count.
	ErrPageOutOfRange = errors.New("page index out of range")
)
