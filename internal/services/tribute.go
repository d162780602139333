package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stine-ri/wings-of-memory/internal/model"
	"github.com/stine-ri/wings-of-memory/internal/store"
)

const (
	anonymousAuthor   = "Anonymous"
	maxTributeMessage = 5000
)

type TributeInput struct {
	AuthorName string
	Message    string
	SessionID  string
}

// TributeService manages tributes on public memorials. Tributes carry no
// account; the writing browser session is the only proof of authorship.
type TributeService struct {
	store     store.Store
	memorials *MemorialService
	log       zerolog.Logger
}

func NewTributeService(s store.Store, memorials *MemorialService, log zerolog.Logger) *TributeService {
	return &TributeService{store: s, memorials: memorials, log: log}
}

func (s *TributeService) List(ctx context.Context, identifier string) ([]*model.Tribute, error) {
	m, err := s.memorials.Get(ctx, identifier, "")
	if err != nil {
		return nil, err
	}
	ts, err := s.store.Tributes().List(ctx, m.MemorialID)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		ts = []*model.Tribute{}
	}
	return ts, nil
}

func validMessage(msg string) (string, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "", model.NewValidationError("message", "is required")
	}
	if len(msg) > maxTributeMessage {
		return "", model.NewValidationError("message", "is too long")
	}
	return msg, nil
}

func (s *TributeService) Create(ctx context.Context, identifier string, in TributeInput) (*model.Tribute, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return nil, model.NewValidationError("sessionId", "is required")
	}
	msg, err := validMessage(in.Message)
	if err != nil {
		return nil, err
	}
	m, err := s.memorials.Get(ctx, identifier, "")
	if err != nil {
		return nil, err
	}
	author := strings.TrimSpace(in.AuthorName)
	if author == "" {
		author = anonymousAuthor
	}
	return s.store.Tributes().Create(ctx, &model.Tribute{
		MemorialID: m.MemorialID,
		AuthorName: author,
		Message:    msg,
		SessionID:  in.SessionID,
	})
}

// authored loads the tribute and checks that sessionID wrote it.
func (s *TributeService) authored(ctx context.Context, identifier, tributeID, sessionID string) (*model.Tribute, error) {
	m, err := s.memorials.Get(ctx, identifier, "")
	if err != nil {
		return nil, err
	}
	t, err := s.store.Tributes().Get(ctx, m.MemorialID, tributeID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" || t.SessionID != sessionID {
		s.log.Warn().Str("memorial", m.MemorialID).Str("tribute", tributeID).Msg("tribute change rejected: session mismatch")
		return nil, model.ErrForbidden
	}
	return t, nil
}

func (s *TributeService) Update(ctx context.Context, identifier, tributeID, message, sessionID string) (*model.Tribute, error) {
	msg, err := validMessage(message)
	if err != nil {
		return nil, err
	}
	t, err := s.authored(ctx, identifier, tributeID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.store.Tributes().UpdateMessage(ctx, t.MemorialID, t.TributeID, msg)
}

func (s *TributeService) Delete(ctx context.Context, identifier, tributeID, sessionID string) error {
	t, err := s.authored(ctx, identifier, tributeID, sessionID)
	if err != nil {
		return err
	}
	return s.store.Tributes().Delete(ctx, t.MemorialID, t.TributeID)
}
