package model

import "time"

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Sort keys for the public memorial search.
const (
	SortRecent = "recent"
	SortOldest = "oldest"
	SortName   = "name"
)

// User is an account able to own memorials.
type User struct {
	UserID       string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreationTime time.Time `json:"createdAt"`
}

// TimelineEvent is one entry on a memorial's life timeline.
type TimelineEvent struct {
	Date        string `json:"date" validate:"max=64"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

// Memorial is a page dedicated to someone who passed away.
type Memorial struct {
	MemorialID   string          `json:"id"`
	OwnerID      string          `json:"ownerId,omitempty"`
	Slug         string          `json:"slug"`
	FullName     string          `json:"fullName"`
	BirthDate    string          `json:"birthDate,omitempty"`
	DeathDate    string          `json:"deathDate,omitempty"`
	Biography    string          `json:"biography,omitempty"`
	Location     string          `json:"location,omitempty"`
	Visibility   string          `json:"visibility"`
	Timeline     []TimelineEvent `json:"timeline,omitempty"`
	CreationTime time.Time       `json:"createdAt"`
	UpdateTime   time.Time       `json:"updatedAt"`
}

// Tribute is an anonymous message left on a public memorial. SessionID is the
// browser session that wrote it and is required to change it.
type Tribute struct {
	TributeID    string    `json:"id"`
	MemorialID   string    `json:"memorialId"`
	AuthorName   string    `json:"authorName"`
	Message      string    `json:"message"`
	SessionID    string    `json:"sessionId"`
	CreationTime time.Time `json:"createdAt"`
	UpdateTime   time.Time `json:"updatedAt"`
}

// RSVP is a reply to a memorial service invitation.
type RSVP struct {
	RSVPID       string    `json:"id"`
	MemorialID   string    `json:"memorialId"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Attendees    int       `json:"attendees"`
	Message      string    `json:"message,omitempty"`
	CreationTime time.Time `json:"createdAt"`
}

// SearchRequest selects a page of public memorials.
type SearchRequest struct {
	Query  string
	SortBy string
	Limit  int
	Offset int
}

type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

type SearchResult struct {
	Memorials  []*Memorial `json:"memorials"`
	Pagination Pagination  `json:"pagination"`
}

// PDFData is the content of a memorial's printable export.
type PDFData struct {
	Memorial    *Memorial  `json:"memorial"`
	Tributes    []*Tribute `json:"tributes"`
	GeneratedAt time.Time  `json:"generatedAt"`
}
