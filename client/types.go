package client

import "time"

// Sort keys accepted by the public search.
const (
	SortRecent = "recent"
	SortOldest = "oldest"
	SortName   = "name"
)

type User struct {
	ID        string    `json:"id" validate:"required"`
	Email     string    `json:"email" validate:"required"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Token string `json:"token" validate:"required"`
	User  User   `json:"user"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TimelineEvent struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Memorial struct {
	ID         string          `json:"id" validate:"required"`
	OwnerID    string          `json:"ownerId,omitempty"`
	Slug       string          `json:"slug"`
	FullName   string          `json:"fullName" validate:"required"`
	BirthDate  string          `json:"birthDate,omitempty"`
	DeathDate  string          `json:"deathDate,omitempty"`
	Biography  string          `json:"biography,omitempty"`
	Location   string          `json:"location,omitempty"`
	Visibility string          `json:"visibility"`
	Timeline   []TimelineEvent `json:"timeline,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// MemorialInput is the full body of a create or update.
type MemorialInput struct {
	FullName   string          `json:"fullName"`
	BirthDate  string          `json:"birthDate,omitempty"`
	DeathDate  string          `json:"deathDate,omitempty"`
	Biography  string          `json:"biography,omitempty"`
	Location   string          `json:"location,omitempty"`
	Visibility string          `json:"visibility,omitempty"`
	Timeline   []TimelineEvent `json:"timeline,omitempty"`
}

type SearchParams struct {
	Search string
	SortBy string
	Limit  int
	Offset int
}

type Pagination struct {
	Total   int  `json:"total" validate:"gte=0"`
	Limit   int  `json:"limit" validate:"gte=0"`
	Offset  int  `json:"offset" validate:"gte=0"`
	HasMore bool `json:"hasMore"`
}

type SearchResponse struct {
	Memorials  []Memorial `json:"memorials" validate:"dive"`
	Pagination Pagination `json:"pagination"`
}

type Tribute struct {
	ID         string    `json:"id" validate:"required"`
	MemorialID string    `json:"memorialId"`
	AuthorName string    `json:"authorName"`
	Message    string    `json:"message"`
	SessionID  string    `json:"sessionId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// MemorialDetail is the public view of one memorial.
type MemorialDetail struct {
	Memorial Memorial  `json:"memorial"`
	Tributes []Tribute `json:"tributes" validate:"dive"`
}

type RSVPRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Attendees int    `json:"attendees,omitempty"`
	Message   string `json:"message,omitempty"`
}

type RSVP struct {
	ID         string    `json:"id" validate:"required"`
	MemorialID string    `json:"memorialId"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Attendees  int       `json:"attendees"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PDFData is everything the PDF export renders.
type PDFData struct {
	Memorial    Memorial  `json:"memorial"`
	Tributes    []Tribute `json:"tributes" validate:"dive"`
	GeneratedAt time.Time `json:"generatedAt"`
}
