package services

import (
	"context"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/rs/zerolog"

	"github.com/stine-ri/wings-of-memory/internal/model"
	"github.com/stine-ri/wings-of-memory/internal/store"
)

const maxAttendees = 20

type RSVPInput struct {
	Name      string
	Email     string
	Phone     string
	Attendees int
	Message   string
}

type RSVPService struct {
	store     store.Store
	memorials *MemorialService
	log       zerolog.Logger
}

func NewRSVPService(s store.Store, memorials *MemorialService, log zerolog.Logger) *RSVPService {
	return &RSVPService{store: s, memorials: memorials, log: log}
}

func (s *RSVPService) Create(ctx context.Context, identifier string, in RSVPInput) (*model.RSVP, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name", "is required")
	}
	email := strings.TrimSpace(in.Email)
	if email != "" && !strfmt.IsEmail(email) {
		return nil, model.NewValidationError("email", "is not a valid email address")
	}
	phone := strings.TrimSpace(in.Phone)
	if phone != "" && !model.ValidPhone(phone) {
		return nil, model.NewValidationError("phone", "is not a valid phone number")
	}
	attendees := in.Attendees
	if attendees == 0 {
		attendees = 1
	}
	if attendees < 1 || attendees > maxAttendees {
		return nil, model.NewValidationError("attendees", "must be between 1 and 20")
	}
	m, err := s.memorials.Get(ctx, identifier, "")
	if err != nil {
		return nil, err
	}
	out, err := s.store.RSVPs().Create(ctx, &model.RSVP{
		MemorialID: m.MemorialID,
		Name:       name,
		Email:      email,
		Phone:      phone,
		Attendees:  attendees,
		Message:    strings.TrimSpace(in.Message),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("memorial", m.MemorialID).Int("attendees", attendees).Msg("rsvp received")
	return out, nil
}

// List returns the RSVPs of a memorial to its owner.
func (s *RSVPService) List(ctx context.Context, ownerID, memorialID string) ([]*model.RSVP, error) {
	if _, err := s.memorials.owned(ctx, ownerID, memorialID); err != nil {
		return nil, err
	}
	rs, err := s.store.RSVPs().List(ctx, memorialID)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		rs = []*model.RSVP{}
	}
	return rs, nil
}
