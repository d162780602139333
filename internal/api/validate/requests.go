package validate

import "github.com/stine-ri/wings-of-memory/internal/model"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,mail,max=320"`
	Password string `json:"password" validate:"required,max=128"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"max=120"`
	Email    string `json:"email" validate:"required,mail,max=320"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type MemorialRequest struct {
	FullName   string                `json:"fullName" validate:"notblank,max=200"`
	BirthDate  string                `json:"birthDate" validate:"max=64"`
	DeathDate  string                `json:"deathDate" validate:"max=64"`
	Biography  string                `json:"biography" validate:"max=20000"`
	Location   string                `json:"location" validate:"max=200"`
	Visibility string                `json:"visibility" validate:"omitempty,oneof=public private"`
	Timeline   []model.TimelineEvent `json:"timeline" validate:"max=200,dive"`
}

type TributeRequest struct {
	AuthorName string `json:"authorName" validate:"max=120"`
	Message    string `json:"message" validate:"notblank,max=5000"`
	SessionID  string `json:"sessionId" validate:"notblank,max=128"`
}

type TributeUpdateRequest struct {
	Message   string `json:"message" validate:"notblank,max=5000"`
	SessionID string `json:"sessionId" validate:"notblank,max=128"`
}

type TributeDeleteRequest struct {
	SessionID string `json:"sessionId" validate:"notblank,max=128"`
}

type RSVPRequest struct {
	Name      string `json:"name" validate:"notblank,max=120"`
	Email     string `json:"email" validate:"omitempty,mail,max=320"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
	Attendees int    `json:"attendees" validate:"gte=0,lte=20"`
	Message   string `json:"message" validate:"max=2000"`
}
