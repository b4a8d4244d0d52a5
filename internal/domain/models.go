package domain

import (
	"fmt"
	"time"
)

// Rect is an axis-aligned rectangle in PDF user space, in points (1/72 inch).
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns X1-X0
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns Y1-Y0
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Valid reports whether the rectangle has a positive width and height
func (r Rect) Valid() bool {
	return r.X1 > r.X0 && r.Y1 > r.Y0
}

// Area returns the rectangle's area, or 0 for degenerate rectangles
func (r Rect) Area() float64 {
	if !r.Valid() {
		return 0
	}
	return r.Width() * r.Height()
}

// Contains reports whether o lies entirely inside r
func (r Rect) Contains(o Rect) bool {
	return o.X0 >= r.X0 && o.Y0 >= r.Y0 && o.X1 <= r.X1 && o.Y1 <= r.Y1
}

func (r Rect) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f]", r.X0, r.Y0, r.X1, r.Y1)
}

// ImageRef identifies an image drawn on a page
type ImageRef struct {
	Name string // resource name, or "inline-N" for inline images
}

// Drawing is one painted vector path. Rect is nil when the drawing reports no extent.
type Drawing struct {
	Rect *Rect
}

// ExportMode selects how cropped pages are written
type ExportMode string

const (
	// ExportWholeDocument crops every page in place and writes one file per input
	ExportWholeDocument ExportMode = "document"
	// ExportPerPage writes every page as its own single-page document
	ExportPerPage ExportMode = "per_page"
)

// PageOutcome describes what happened to one page during export.
// Crop is nil when the page was left uncropped.
type PageOutcome struct {
	Number int   `json:"number"`
	Native Rect  `json:"native"`
	Crop   *Rect `json:"crop,omitempty"`
}

// FileJobResult is the outcome of processing one input file
type FileJobResult struct {
	Path      string   `json:"path"`
	Artifacts int      `json:"artifacts"`
	Outputs   []string `json:"outputs,omitempty"`
	Error     string   `json:"error,omitempty"`
	Err       error    `json:"-"`
}

// Succeeded reports whether the file was processed without error
func (r FileJobResult) Succeeded() bool {
	return r.Err == nil
}

// BatchResult aggregates the results of one batch run
type BatchResult struct {
	RunID          string          `json:"run_id"`
	TotalFiles     int             `json:"total_files"`
	ProcessedFiles int             `json:"processed_files"`
	Artifacts      int             `json:"artifacts"`
	Errors         []string        `json:"errors"`
	Files          []FileJobResult `json:"files"`
	Cancelled      bool            `json:"cancelled"`
	Duration       time.Duration   `json:"duration"`
}

// FailedFiles returns the number of files that were attempted and failed
func (r *BatchResult) FailedFiles() int {
	return len(r.Errors)
}

// EventType represents the type of stream event
type EventType string

const (
	EventStart          EventType = "start"
	EventFileProcessing EventType = "file_processing"
	EventPageComplete   EventType = "page_complete"
	EventFileComplete   EventType = "file_complete"
	EventError          EventType = "error"
	EventComplete       EventType = "complete"
)

// StreamEvent represents an event emitted during batch processing.
// FileIndex is 1-based; it is 0 for batch-level events.
type StreamEvent struct {
	Type       EventType   `json:"type"`
	FileIndex  int         `json:"file_index,omitempty"`
	FileName   string      `json:"file_name,omitempty"`
	PageNumber int         `json:"page_number,omitempty"`
	Payload    interface{} `json:"payload,omitempty"` // status message, PageOutcome, *FileJobResult or *BatchResult
	Timestamp  time.Time   `json:"timestamp"`
}
