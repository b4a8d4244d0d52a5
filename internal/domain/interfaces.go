package domain

// Backend opens PDF documents. It is the entry point into the PDF content-model library.
type Backend interface {
	// Open loads the document at path. Missing or corrupt files fail with an open error.
	Open(path string) (Document, error)
}

// Document is an opened PDF owned exclusively by its caller until Close.
type Document interface {
	// PageCount returns the number of pages in the document
	PageCount() int

	// Page returns the page with the given 1-based number
	Page(number int) (Page, error)

	// CopyPage creates a new single-page document whose page has the same size and
	// the full content of page number. The source document is not modified.
	CopyPage(number int) (Document, error)

	// Save writes the document, including every crop region change, to path
	Save(path string) error

	// Close releases the document. Safe to call more than once.
	Close() error
}

// Page gives access to the geometry of one page's visible content.
type Page interface {
	// Number returns the 1-based page number
	Number() int

	// Rect returns the page's own boundary (its current visible region)
	Rect() Rect

	// TextBlocks returns the bounding rectangle of every text block
	TextBlocks() ([]Rect, error)

	// Images returns a reference for every image drawn on the page
	Images() ([]ImageRef, error)

	// ImageRects returns every placement of the referenced image on the page
	ImageRects(ref ImageRef) ([]Rect, error)

	// Drawings returns the page's vector drawings in content-stream order
	Drawings() ([]Drawing, error)

	// SetCropRegion replaces the page's visible region
	SetCropRegion(r Rect) error
}
