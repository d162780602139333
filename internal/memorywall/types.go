package memorywall

import "time"

const (
	// DateLayout renders dates as "Month Day, Year".
	DateLayout = "January 2, 2006"

	DefaultAuthor   = "Anonymous"
	DefaultImageTTL = 24 * time.Hour
)

// MemoryRecord is one remembrance on the wall. UserID is fixed at creation
// and is the only thing edit/delete checks; it is not a security boundary.
type MemoryRecord struct {
	ID        string   `json:"id" validate:"required"`
	Text      string   `json:"text" validate:"required"`
	Author    string   `json:"author"`
	Date      string   `json:"date"`
	Images    []string `json:"images"`
	UserID    string   `json:"userId" validate:"required"`
	Timestamp int64    `json:"timestamp" validate:"gt=0"` // unix millis
}

// ImageBlob is stored under its own key and expires independently of the
// records that reference it.
type ImageBlob struct {
	ID        string `json:"id" validate:"required"`
	Data      string `json:"data" validate:"required"`
	Timestamp int64  `json:"timestamp" validate:"gt=0"` // unix millis
}

// Draft is the form input for Submit and Edit.
type Draft struct {
	Text   string `validate:"required,max=5000"`
	Author string `validate:"max=100"`
	// Images are base64 payloads (optionally data URLs) uploaded with the draft.
	Images []string `validate:"max=10"`
	// KeepImages lists image IDs of the existing record retained by Edit.
	KeepImages []string
}

// SortOrder orders List output.
type SortOrder string

const (
	SortRecent SortOrder = "recent"
	SortOldest SortOrder = "oldest"
)
