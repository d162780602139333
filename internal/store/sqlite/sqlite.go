package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/stine-ri/wings-of-memory/internal/model"
	"github.com/stine-ri/wings-of-memory/internal/store"
)

// New opens path, applies the schema and returns the store.
func New(ctx context.Context, path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wraps an existing connection whose schema is already in place.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db, now: func() time.Time { return time.Now().UTC() }} }

type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

func (s *sqliteStore) Users() store.Users         { return &users{s} }
func (s *sqliteStore) Memorials() store.Memorials { return &memorials{s} }
func (s *sqliteStore) Tributes() store.Tributes   { return &tributes{s} }
func (s *sqliteStore) RSVPs() store.RSVPs         { return &rsvps{s} }
func (s *sqliteStore) Close() error               { return s.db.Close() }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

// DB exposes the underlying connection (tests and local tooling).
func (s *sqliteStore) DB() *sql.DB { return s.db }

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) && (se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY) {
		return model.ErrConflict
	}
	return err
}

func ts(t time.Time) int64     { return t.UnixNano() }
func fromTS(n int64) time.Time { return time.Unix(0, n).UTC() }

// --- Users ---
type users struct{ s *sqliteStore }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	if out.UserID == "" {
		out.UserID = uuid.NewString()
	}
	out.CreationTime = u.s.now()
	_, err := u.s.db.ExecContext(ctx, `INSERT INTO Users (UserId, Email, Name, PasswordHash, CreationTime) VALUES (?,?,?,?,?)`,
		out.UserID, out.Email, out.Name, out.PasswordHash, ts(out.CreationTime))
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	return scanUser(u.s.db.QueryRowContext(ctx, `SELECT UserId, Email, Name, PasswordHash, CreationTime FROM Users WHERE UserId = ?`, userID))
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(u.s.db.QueryRowContext(ctx, `SELECT UserId, Email, Name, PasswordHash, CreationTime FROM Users WHERE Email = ?`, email))
}

func scanUser(row *sql.Row) (*model.User, error) {
	var out model.User
	var created int64
	if err := row.Scan(&out.UserID, &out.Email, &out.Name, &out.PasswordHash, &created); err != nil {
		return nil, mapErr(err)
	}
	out.CreationTime = fromTS(created)
	return &out, nil
}

// --- Memorials ---
type memorials struct{ s *sqliteStore }

const memorialCols = `MemorialId, OwnerId, Slug, FullName, BirthDate, DeathDate, Biography, Location, Visibility, Timeline, CreationTime, UpdateTime`

type rowScanner interface{ Scan(dest ...any) error }

func scanMemorial(row rowScanner) (*model.Memorial, error) {
	var m model.Memorial
	var timeline string
	var created, updated int64
	if err := row.Scan(&m.MemorialID, &m.OwnerID, &m.Slug, &m.FullName, &m.BirthDate, &m.DeathDate,
		&m.Biography, &m.Location, &m.Visibility, &timeline, &created, &updated); err != nil {
		return nil, mapErr(err)
	}
	if timeline != "" {
		if err := json.Unmarshal([]byte(timeline), &m.Timeline); err != nil {
			return nil, err
		}
	}
	m.CreationTime = fromTS(created)
	m.UpdateTime = fromTS(updated)
	return &m, nil
}

func timelineJSON(events []model.TimelineEvent) (string, error) {
	if events == nil {
		events = []model.TimelineEvent{}
	}
	b, err := json.Marshal(events)
	return string(b), err
}

func (r *memorials) Create(ctx context.Context, m *model.Memorial) (*model.Memorial, error) {
	out := *m
	if out.MemorialID == "" {
		out.MemorialID = uuid.NewString()
	}
	now := r.s.now()
	out.CreationTime, out.UpdateTime = now, now
	timeline, err := timelineJSON(out.Timeline)
	if err != nil {
		return nil, err
	}
	_, err = r.s.db.ExecContext(ctx, `INSERT INTO Memorials (`+memorialCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		out.MemorialID, out.OwnerID, out.Slug, out.FullName, out.BirthDate, out.DeathDate, out.Biography,
		out.Location, out.Visibility, timeline, ts(now), ts(now))
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *memorials) GetByID(ctx context.Context, id string) (*model.Memorial, error) {
	return scanMemorial(r.s.db.QueryRowContext(ctx, `SELECT `+memorialCols+` FROM Memorials WHERE MemorialId = ?`, id))
}

func (r *memorials) GetBySlug(ctx context.Context, slug string) (*model.Memorial, error) {
	return scanMemorial(r.s.db.QueryRowContext(ctx, `SELECT `+memorialCols+` FROM Memorials WHERE Slug = ?`, slug))
}

func (r *memorials) ListByOwner(ctx context.Context, ownerID string) ([]*model.Memorial, error) {
	rows, err := r.s.db.QueryContext(ctx, `SELECT `+memorialCols+` FROM Memorials WHERE OwnerId = ? ORDER BY CreationTime DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*model.Memorial{}
	for rows.Next() {
		m, err := scanMemorial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *memorials) Update(ctx context.Context, m *model.Memorial) (*model.Memorial, error) {
	timeline, err := timelineJSON(m.Timeline)
	if err != nil {
		return nil, err
	}
	now := r.s.now()
	res, err := r.s.db.ExecContext(ctx, `UPDATE Memorials SET FullName = ?, BirthDate = ?, DeathDate = ?, Biography = ?, Location = ?, Visibility = ?, Timeline = ?, UpdateTime = ? WHERE MemorialId = ?`,
		m.FullName, m.BirthDate, m.DeathDate, m.Biography, m.Location, m.Visibility, timeline, ts(now), m.MemorialID)
	if err != nil {
		return nil, mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return r.GetByID(ctx, m.MemorialID)
}

func (r *memorials) Delete(ctx context.Context, id string) error {
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM Tributes WHERE MemorialId = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM Rsvps WHERE MemorialId = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM Memorials WHERE MemorialId = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return tx.Commit()
}

func (r *memorials) SearchPublic(ctx context.Context, req model.SearchRequest) ([]*model.Memorial, int, error) {
	where := `Visibility = 'public'`
	var args []any
	if req.Query != "" {
		p := store.LikePattern(req.Query)
		where += ` AND (LOWER(FullName) LIKE ? ESCAPE '\' OR LOWER(Location) LIKE ? ESCAPE '\' OR LOWER(Biography) LIKE ? ESCAPE '\')`
		args = append(args, p, p, p)
	}

	var total int
	if err := r.s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM Memorials WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := store.OrderClause(req.SortBy, "CreationTime", "FullName", "rowid")
	rows, err := r.s.db.QueryContext(ctx, `SELECT `+memorialCols+` FROM Memorials WHERE `+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, req.Limit, req.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()
	out := []*model.Memorial{}
	for rows.Next() {
		m, err := scanMemorial(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// --- Tributes ---
type tributes struct{ s *sqliteStore }

const tributeCols = `TributeId, MemorialId, AuthorName, Message, SessionId, CreationTime, UpdateTime`

func scanTribute(row rowScanner) (*model.Tribute, error) {
	var t model.Tribute
	var created, updated int64
	if err := row.Scan(&t.TributeID, &t.MemorialID, &t.AuthorName, &t.Message, &t.SessionID, &created, &updated); err != nil {
		return nil, mapErr(err)
	}
	t.CreationTime = fromTS(created)
	t.UpdateTime = fromTS(updated)
	return &t, nil
}

func (r *tributes) Create(ctx context.Context, t *model.Tribute) (*model.Tribute, error) {
	out := *t
	if out.TributeID == "" {
		out.TributeID = uuid.NewString()
	}
	now := r.s.now()
	out.CreationTime, out.UpdateTime = now, now
	_, err := r.s.db.ExecContext(ctx, `INSERT INTO Tributes (`+tributeCols+`) VALUES (?,?,?,?,?,?,?)`,
		out.TributeID, out.MemorialID, out.AuthorName, out.Message, out.SessionID, ts(now), ts(now))
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *tributes) Get(ctx context.Context, memorialID, tributeID string) (*model.Tribute, error) {
	return scanTribute(r.s.db.QueryRowContext(ctx, `SELECT `+tributeCols+` FROM Tributes WHERE MemorialId = ? AND TributeId = ?`, memorialID, tributeID))
}

func (r *tributes) List(ctx context.Context, memorialID string) ([]*model.Tribute, error) {
	rows, err := r.s.db.QueryContext(ctx, `SELECT `+tributeCols+` FROM Tributes WHERE MemorialId = ? ORDER BY CreationTime DESC, rowid DESC`, memorialID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*model.Tribute{}
	for rows.Next() {
		t, err := scanTribute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *tributes) UpdateMessage(ctx context.Context, memorialID, tributeID, message string) (*model.Tribute, error) {
	res, err := r.s.db.ExecContext(ctx, `UPDATE Tributes SET Message = ?, UpdateTime = ? WHERE MemorialId = ? AND TributeId = ?`,
		message, ts(r.s.now()), memorialID, tributeID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return r.Get(ctx, memorialID, tributeID)
}

func (r *tributes) Delete(ctx context.Context, memorialID, tributeID string) error {
	res, err := r.s.db.ExecContext(ctx, `DELETE FROM Tributes WHERE MemorialId = ? AND TributeId = ?`, memorialID, tributeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- RSVPs ---
type rsvps struct{ s *sqliteStore }

func (r *rsvps) Create(ctx context.Context, v *model.RSVP) (*model.RSVP, error) {
	out := *v
	if out.RSVPID == "" {
		out.RSVPID = uuid.NewString()
	}
	out.CreationTime = r.s.now()
	_, err := r.s.db.ExecContext(ctx, `INSERT INTO Rsvps (RsvpId, MemorialId, Name, Email, Phone, Attendees, Message, CreationTime) VALUES (?,?,?,?,?,?,?,?)`,
		out.RSVPID, out.MemorialID, out.Name, out.Email, out.Phone, out.Attendees, out.Message, ts(out.CreationTime))
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *rsvps) List(ctx context.Context, memorialID string) ([]*model.RSVP, error) {
	rows, err := r.s.db.QueryContext(ctx, `SELECT RsvpId, MemorialId, Name, Email, Phone, Attendees, Message, CreationTime FROM Rsvps WHERE MemorialId = ? ORDER BY CreationTime ASC, rowid ASC`, memorialID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*model.RSVP{}
	for rows.Next() {
		var v model.RSVP
		var created int64
		if err := rows.Scan(&v.RSVPID, &v.MemorialID, &v.Name, &v.Email, &v.Phone, &v.Attendees, &v.Message, &created); err != nil {
			return nil, err
		}
		v.CreationTime = fromTS(created)
		out = append(out, &v)
	}
	return out, rows.Err()
}
