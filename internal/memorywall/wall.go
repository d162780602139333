package memorywall

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Identity supplies the current session identity.
type Identity interface {
	CurrentUser(ctx context.Context) string
}

// Wall implements the memory lifecycle Draft -> Submitted -> Edited* -> Deleted
// on top of Store, attributing records to the current session identity.
type Wall struct {
	store    *Store
	identity Identity
	log      zerolog.Logger
}

// NewWall returns a Wall.
func NewWall(store *Store, identity Identity) *Wall {
	return &Wall{store: store, identity: identity, log: store.log}
}

// Store exposes the underlying record store.
func (w *Wall) Store() *Store { return w.store }

// Submit validates the draft, uploads its images and prepends a new record.
func (w *Wall) Submit(ctx context.Context, d Draft) (MemoryRecord, error) {
	d = normalize(d)
	if err := w.validateDraft(d); err != nil {
		return MemoryRecord{}, err
	}

	existing, err := w.store.load(ctx)
	if err != nil {
		return MemoryRecord{}, err
	}
	images, err := w.upload(ctx, d.Images)
	if err != nil {
		return MemoryRecord{}, err
	}

	now := w.store.now()
	rec := MemoryRecord{
		ID:        w.store.newID(),
		Text:      d.Text,
		Author:    d.Author,
		Date:      now.Format(DateLayout),
		Images:    images,
		UserID:    w.identity.CurrentUser(ctx),
		Timestamp: now.UnixMilli(),
	}

	records := append([]MemoryRecord{rec}, existing...)
	if err := w.store.Save(ctx, records); err != nil {
		return MemoryRecord{}, fmt.Errorf("save memories: %w", err)
	}
	w.log.Debug().Str("memory", rec.ID).Int("images", len(images)).Msg("memory submitted")
	return rec, nil
}

// Edit overwrites text, author and images of a record authored by the
// current session. ID, UserID, Date and Timestamp do not change.
func (w *Wall) Edit(ctx context.Context, id string, d Draft) (MemoryRecord, error) {
	d = normalize(d)
	if err := w.validateDraft(d); err != nil {
		return MemoryRecord{}, err
	}

	records, err := w.store.load(ctx)
	if err != nil {
		return MemoryRecord{}, err
	}
	idx, err := w.authorize(ctx, records, id)
	if err != nil {
		return MemoryRecord{}, err
	}

	existing := records[idx]
	keep := make(map[string]bool, len(d.KeepImages))
	for _, k := range d.KeepImages {
		keep[k] = true
	}
	images := make([]string, 0, len(existing.Images)+len(d.Images))
	var dropped []string
	for _, img := range existing.Images {
		if keep[img] {
			images = append(images, img)
		} else {
			dropped = append(dropped, img)
		}
	}
	uploaded, err := w.upload(ctx, d.Images)
	if err != nil {
		return MemoryRecord{}, err
	}
	images = append(images, uploaded...)

	updated := existing
	updated.Text = d.Text
	updated.Author = d.Author
	updated.Images = images
	records[idx] = updated

	if err := w.store.Save(ctx, records); err != nil {
		return MemoryRecord{}, fmt.Errorf("save memories: %w", err)
	}
	w.removeImages(ctx, dropped)
	return updated, nil
}

// Delete removes a record authored by the current session, then tries to
// remove its images. Image cleanup is best effort and not atomic with the
// record removal.
func (w *Wall) Delete(ctx context.Context, id string) error {
	records, err := w.store.load(ctx)
	if err != nil {
		return err
	}
	idx, err := w.authorize(ctx, records, id)
	if err != nil {
		return err
	}
	rec := records[idx]
	records = append(records[:idx], records[idx+1:]...)
	if err := w.store.Save(ctx, records); err != nil {
		return fmt.Errorf("save memories: %w", err)
	}
	w.removeImages(ctx, rec.Images)
	return nil
}

// CanModify reports whether the current session authored the record.
func (w *Wall) CanModify(ctx context.Context, rec MemoryRecord) bool {
	return rec.UserID != "" && rec.UserID == w.identity.CurrentUser(ctx)
}

// List returns the records ordered by creation time.
func (w *Wall) List(ctx context.Context, order SortOrder) []MemoryRecord {
	records := w.store.Load(ctx)
	sort.SliceStable(records, func(i, j int) bool {
		if order == SortOldest {
			return records[i].Timestamp < records[j].Timestamp
		}
		return records[i].Timestamp > records[j].Timestamp
	})
	return records
}

// Get returns one record.
func (w *Wall) Get(ctx context.Context, id string) (MemoryRecord, error) {
	for _, r := range w.store.Load(ctx) {
		if r.ID == id {
			return r, nil
		}
	}
	return MemoryRecord{}, ErrNotFound
}

// ToggleLike flips the local like flag of a record and returns the new state.
// Likes never leave this storage.
func (w *Wall) ToggleLike(ctx context.Context, id string) (bool, error) {
	if _, err := w.Get(ctx, id); err != nil {
		return false, err
	}
	likes, err := w.store.loadLikes(ctx)
	if err != nil {
		return false, err
	}
	out := likes[:0]
	liked := true
	for _, l := range likes {
		if l == id {
			liked = false
			continue
		}
		out = append(out, l)
	}
	if liked {
		out = append(out, id)
	}
	if err := w.store.saveLikes(ctx, out); err != nil {
		return !liked, err
	}
	return liked, nil
}

// Likes returns the set of locally liked record IDs.
func (w *Wall) Likes(ctx context.Context) map[string]bool {
	set := make(map[string]bool)
	likes, err := w.store.loadLikes(ctx)
	if err != nil {
		w.log.Warn().Err(err).Msg("liked memories unreadable")
		return set
	}
	for _, id := range likes {
		set[id] = true
	}
	return set
}

// Sweep runs image expiry as of now; it is what a page load does.
func (w *Wall) Sweep(ctx context.Context) (int, error) {
	return w.store.ExpireImages(ctx, w.store.now())
}

func (w *Wall) authorize(ctx context.Context, records []MemoryRecord, id string) (int, error) {
	for i, r := range records {
		if r.ID != id {
			continue
		}
		if !w.CanModify(ctx, r) {
			return -1, ErrForbidden
		}
		return i, nil
	}
	return -1, ErrNotFound
}

func (w *Wall) upload(ctx context.Context, payloads []string) ([]string, error) {
	ids := make([]string, 0, len(payloads))
	for _, p := range payloads {
		id, err := w.store.AddImage(ctx, p)
		if err != nil {
			// Blobs already written are left to expire.
			return nil, fmt.Errorf("store image: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (w *Wall) removeImages(ctx context.Context, ids []string) {
	for _, img := range ids {
		if err := w.store.RemoveImage(ctx, img); err != nil {
			w.log.Warn().Err(err).Str("image", img).Msg("image cleanup failed")
		}
	}
}

func (w *Wall) validateDraft(d Draft) error {
	err := w.store.validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return ValidationError{Field: field, Message: "is required"}
		case "max":
			return ValidationError{Field: field, Message: "exceeds " + fe.Param()}
		}
		return ValidationError{Field: field, Message: fe.Tag()}
	}
	return err
}

func normalize(d Draft) Draft {
	d.Text = strings.TrimSpace(d.Text)
	d.Author = strings.TrimSpace(d.Author)
	if d.Author == "" {
		d.Author = DefaultAuthor
	}
	return d
}
