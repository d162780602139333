package memorywall

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stine-ri/wings-of-memory/internal/localstate"
)

const (
	memoriesKey = "memories"
	likesKey    = "likedMemories"
	imagePrefix = "img_"
)

// Store persists memory records as a single JSON list and image blobs one per
// key. There is no merge or version check: Save replaces the list and the
// last writer wins.
type Store struct {
	kv       localstate.Storage
	log      zerolog.Logger
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
	validate *validator.Validate
}

// StoreOption configures a Store.
type StoreOption func(*Store)

func WithLogger(l zerolog.Logger) StoreOption { return func(s *Store) { s.log = l } }

// WithImageTTL overrides the 24h image lifetime.
func WithImageTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) StoreOption { return func(s *Store) { s.now = now } }

// NewStore returns a Store over kv.
func NewStore(kv localstate.Storage, opts ...StoreOption) *Store {
	s := &Store{
		kv:       kv,
		log:      zerolog.Nop(),
		ttl:      DefaultImageTTL,
		now:      time.Now,
		newID:    uuid.NewString,
		validate: validator.New(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load returns the persisted records. Missing or corrupt data yields an empty
// list; individual records failing validation are dropped.
func (s *Store) Load(ctx context.Context) []MemoryRecord {
	out, err := s.load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("memories unreadable; starting empty")
		return []MemoryRecord{}
	}
	return out
}

// load is Load for write paths: a failed read is returned, never replaced by
// an empty list that Save would then persist.
func (s *Store) load(ctx context.Context) ([]MemoryRecord, error) {
	raw, ok, err := s.kv.GetItem(ctx, memoriesKey)
	if err != nil {
		return nil, fmt.Errorf("read memories: %w", err)
	}
	if !ok || raw == "" {
		return []MemoryRecord{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.Warn().Err(err).Msg("memories corrupt; starting empty")
		return []MemoryRecord{}, nil
	}

	out := make([]MemoryRecord, 0, len(items))
	for i, item := range items {
		var rec MemoryRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			s.log.Warn().Err(err).Int("index", i).Msg("dropping undecodable memory")
			continue
		}
		if err := s.validate.Struct(rec); err != nil {
			s.log.Warn().Err(err).Int("index", i).Msg("dropping invalid memory")
			continue
		}
		if rec.Images == nil {
			rec.Images = []string{}
		}
		out = append(out, rec)
	}
	return out, nil
}

// Save overwrites the persisted list.
func (s *Store) Save(ctx context.Context, records []MemoryRecord) error {
	if records == nil {
		records = []MemoryRecord{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.kv.SetItem(ctx, memoriesKey, string(b))
}

// AddImage stores a blob and returns its ID.
func (s *Store) AddImage(ctx context.Context, data string) (string, error) {
	if !isBase64Payload(data) {
		return "", ErrBadImage
	}
	blob := ImageBlob{ID: imagePrefix + s.newID(), Data: data, Timestamp: s.now().UnixMilli()}
	b, err := json.Marshal(blob)
	if err != nil {
		return "", err
	}
	if err := s.kv.SetItem(ctx, blob.ID, string(b)); err != nil {
		return "", err
	}
	return blob.ID, nil
}

// ResolveImage returns the blob data, or "" when it is missing, expired away
// or unreadable.
func (s *Store) ResolveImage(ctx context.Context, id string) string {
	blob, ok := s.readBlob(ctx, id)
	if !ok {
		return ""
	}
	return blob.Data
}

// RemoveImage deletes a blob.
func (s *Store) RemoveImage(ctx context.Context, id string) error {
	return s.kv.RemoveItem(ctx, id)
}

// ExpireImages deletes every blob older than the TTL at now and reports how
// many were removed. Records referencing them are left untouched.
func (s *Store) ExpireImages(ctx context.Context, now time.Time) (int, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := now.Add(-s.ttl).UnixMilli()
	removed := 0
	for _, k := range keys {
		if !strings.HasPrefix(k, imagePrefix) {
			continue
		}
		blob, ok := s.readBlob(ctx, k)
		if !ok {
			continue
		}
		if blob.Timestamp < cutoff {
			if err := s.kv.RemoveItem(ctx, k); err != nil {
				return removed, err
			}
			removed++
		}
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("expired image blobs")
	}
	return removed, nil
}

func (s *Store) readBlob(ctx context.Context, id string) (ImageBlob, bool) {
	raw, ok, err := s.kv.GetItem(ctx, id)
	if err != nil || !ok {
		return ImageBlob{}, false
	}
	var blob ImageBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		s.log.Debug().Err(err).Str("image", id).Msg("unreadable image blob")
		return ImageBlob{}, false
	}
	if err := s.validate.Struct(blob); err != nil {
		return ImageBlob{}, false
	}
	return blob, true
}

// loadLikes treats absent or corrupt data as no likes and returns read errors.
func (s *Store) loadLikes(ctx context.Context) ([]string, error) {
	raw, ok, err := s.kv.GetItem(ctx, likesKey)
	if err != nil {
		return nil, fmt.Errorf("read liked memories: %w", err)
	}
	if !ok || raw == "" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.log.Warn().Err(err).Msg("liked memories corrupt; starting empty")
		return []string{}, nil
	}
	return ids, nil
}

func (s *Store) saveLikes(ctx context.Context, ids []string) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.kv.SetItem(ctx, likesKey, string(b))
}

// isBase64Payload accepts raw base64 or a data URL carrying base64.
func isBase64Payload(data string) bool {
	if i := strings.Index(data, ";base64,"); strings.HasPrefix(data, "data:") && i >= 0 {
		data = data[i+len(";base64,"):]
	}
	if data == "" {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(data)
	return err == nil
}
