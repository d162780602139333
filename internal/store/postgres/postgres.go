// Package postgres implements store.Store on PostgreSQL through the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/stine-ri/wings-of-memory/internal/model"
	"github.com/stine-ri/wings-of-memory/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id       TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	creation_time TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS memorials (
	seq           BIGSERIAL,
	memorial_id   TEXT PRIMARY KEY,
	owner_id      TEXT NOT NULL,
	slug          TEXT NOT NULL UNIQUE,
	full_name     TEXT NOT NULL,
	birth_date    TEXT NOT NULL DEFAULT '',
	death_date    TEXT NOT NULL DEFAULT '',
	biography     TEXT NOT NULL DEFAULT '',
	location      TEXT NOT NULL DEFAULT '',
	visibility    TEXT NOT NULL,
	timeline      JSONB NOT NULL DEFAULT '[]',
	creation_time TIMESTAMPTZ NOT NULL,
	update_time   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS memorials_by_owner ON memorials (owner_id);
CREATE TABLE IF NOT EXISTS tributes (
	seq           BIGSERIAL,
	tribute_id    TEXT PRIMARY KEY,
	memorial_id   TEXT NOT NULL REFERENCES memorials (memorial_id) ON DELETE CASCADE,
	author_name   TEXT NOT NULL,
	message       TEXT NOT NULL,
	session_id    TEXT NOT NULL,
	creation_time TIMESTAMPTZ NOT NULL,
	update_time   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS tributes_by_memorial ON tributes (memorial_id, creation_time);
CREATE TABLE IF NOT EXISTS rsvps (
	seq           BIGSERIAL,
	rsvp_id       TEXT PRIMARY KEY,
	memorial_id   TEXT NOT NULL REFERENCES memorials (memorial_id) ON DELETE CASCADE,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	attendees     INTEGER NOT NULL DEFAULT 1,
	message       TEXT NOT NULL DEFAULT '',
	creation_time TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Bootstrap connects, applies the schema and closes. Used by the factory to
// wait for the database on startup.
func Bootstrap(ctx context.Context, dsn string) error {
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return EnsureSchema(ctx, db)
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users         { return &users{db: s.db} }
func (s *pgStore) Memorials() store.Memorials { return &memorials{db: s.db} }
func (s *pgStore) Tributes() store.Tributes   { return &tributes{db: s.db} }
func (s *pgStore) RSVPs() store.RSVPs         { return &rsvps{db: s.db} }
func (s *pgStore) Close() error               { return s.db.Close() }

// HealthPing implements health.HealthPinger for Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return model.ErrConflict
	}
	return err
}

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

type rowScanner interface{ Scan(dest ...any) error }

// --- Users ---
type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	if out.UserID == "" {
		out.UserID = uuid.NewString()
	}
	out.CreationTime = now()
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (user_id, email, name, password_hash, creation_time)
        VALUES ($1,$2,$3,$4,$5)
    `, out.UserID, out.Email, out.Name, out.PasswordHash, out.CreationTime)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	return scanUser(u.db.QueryRowContext(ctx, `
        SELECT user_id, email, name, password_hash, creation_time FROM users WHERE user_id=$1
    `, userID))
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(u.db.QueryRowContext(ctx, `
        SELECT user_id, email, name, password_hash, creation_time FROM users WHERE email=$1
    `, email))
}

func scanUser(row rowScanner) (*model.User, error) {
	var out model.User
	if err := row.Scan(&out.UserID, &out.Email, &out.Name, &out.PasswordHash, &out.CreationTime); err != nil {
		return nil, mapErr(err)
	}
	out.CreationTime = out.CreationTime.UTC()
	return &out, nil
}

// --- Memorials ---
type memorials struct{ db *sql.DB }

const memorialCols = `memorial_id, owner_id, slug, full_name, birth_date, death_date, biography, location, visibility, timeline, creation_time, update_time`

func scanMemorial(row rowScanner) (*model.Memorial, error) {
	var m model.Memorial
	var timeline []byte
	if err := row.Scan(&m.MemorialID, &m.OwnerID, &m.Slug, &m.FullName, &m.BirthDate, &m.DeathDate,
		&m.Biography, &m.Location, &m.Visibility, &timeline, &m.CreationTime, &m.UpdateTime); err != nil {
		return nil, mapErr(err)
	}
	if len(timeline) > 0 {
		if err := json.Unmarshal(timeline, &m.Timeline); err != nil {
			return nil, err
		}
	}
	m.CreationTime = m.CreationTime.UTC()
	m.UpdateTime = m.UpdateTime.UTC()
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
	ts := now()
	out.CreationTime, out.UpdateTime = ts, ts
	timeline, err := timelineJSON(out.Timeline)
	if err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO memorials (`+memorialCols+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::jsonb,$11,$12)
    `, out.MemorialID, out.OwnerID, out.Slug, out.FullName, out.BirthDate, out.DeathDate, out.Biography,
		out.Location, out.Visibility, timeline, ts, ts)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *memorials) GetByID(ctx context.Context, id string) (*model.Memorial, error) {
	return scanMemorial(r.db.QueryRowContext(ctx, `SELECT `+memorialCols+` FROM memorials WHERE memorial_id=$1`, id))
}

func (r *memorials) GetBySlug(ctx context.Context, slug string) (*model.Memorial, error) {
	return scanMemorial(r.db.QueryRowContext(ctx, `SELECT `+memorialCols+` FROM memorials WHERE slug=$1`, slug))
}

func (r *memorials) ListByOwner(ctx context.Context, ownerID string) ([]*model.Memorial, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+memorialCols+` FROM memorials WHERE owner_id=$1 ORDER BY creation_time DESC, seq DESC
    `, ownerID)
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
	row := r.db.QueryRowContext(ctx, `
        UPDATE memorials
        SET full_name=$1, birth_date=$2, death_date=$3, biography=$4, location=$5, visibility=$6, timeline=$7::jsonb, update_time=$8
        WHERE memorial_id=$9
        RETURNING `+memorialCols,
		m.FullName, m.BirthDate, m.DeathDate, m.Biography, m.Location, m.Visibility, timeline, now(), m.MemorialID)
	return scanMemorial(row)
}

func (r *memorials) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tributes WHERE memorial_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rsvps WHERE memorial_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM memorials WHERE memorial_id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return tx.Commit()
}

func (r *memorials) SearchPublic(ctx context.Context, req model.SearchRequest) ([]*model.Memorial, int, error) {
	where := `visibility='public'`
	args := []any{}
	if req.Query != "" {
		args = append(args, store.LikePattern(req.Query))
		where += ` AND (LOWER(full_name) LIKE $1 OR LOWER(location) LIKE $1 OR LOWER(biography) LIKE $1)`
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memorials WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := store.OrderClause(req.SortBy, "creation_time", "full_name", "seq")
	n := len(args)
	q := fmt.Sprintf(`SELECT %s FROM memorials WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`, memorialCols, where, order, n+1, n+2)
	rows, err := r.db.QueryContext(ctx, q, append(args, req.Limit, req.Offset)...)
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
type tributes struct{ db *sql.DB }

const tributeCols = `tribute_id, memorial_id, author_name, message, session_id, creation_time, update_time`

func scanTribute(row rowScanner) (*model.Tribute, error) {
	var t model.Tribute
	if err := row.Scan(&t.TributeID, &t.MemorialID, &t.AuthorName, &t.Message, &t.SessionID, &t.CreationTime, &t.UpdateTime); err != nil {
		return nil, mapErr(err)
	}
	t.CreationTime = t.CreationTime.UTC()
	t.UpdateTime = t.UpdateTime.UTC()
	return &t, nil
}

func (r *tributes) Create(ctx context.Context, t *model.Tribute) (*model.Tribute, error) {
	out := *t
	if out.TributeID == "" {
		out.TributeID = uuid.NewString()
	}
	ts := now()
	out.CreationTime, out.UpdateTime = ts, ts
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO tributes (`+tributeCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, out.TributeID, out.MemorialID, out.AuthorName, out.Message, out.SessionID, ts, ts)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *tributes) Get(ctx context.Context, memorialID, tributeID string) (*model.Tribute, error) {
	return scanTribute(r.db.QueryRowContext(ctx, `
        SELECT `+tributeCols+` FROM tributes WHERE memorial_id=$1 AND tribute_id=$2
    `, memorialID, tributeID))
}

func (r *tributes) List(ctx context.Context, memorialID string) ([]*model.Tribute, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+tributeCols+` FROM tributes WHERE memorial_id=$1 ORDER BY creation_time DESC, seq DESC
    `, memorialID)
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
	return scanTribute(r.db.QueryRowContext(ctx, `
        UPDATE tributes SET message=$1, update_time=$2 WHERE memorial_id=$3 AND tribute_id=$4
        RETURNING `+tributeCols,
		message, now(), memorialID, tributeID))
}

func (r *tributes) Delete(ctx context.Context, memorialID, tributeID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tributes WHERE memorial_id=$1 AND tribute_id=$2`, memorialID, tributeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- RSVPs ---
type rsvps struct{ db *sql.DB }

func (r *rsvps) Create(ctx context.Context, v *model.RSVP) (*model.RSVP, error) {
	out := *v
	if out.RSVPID == "" {
		out.RSVPID = uuid.NewString()
	}
	out.CreationTime = now()
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO rsvps (rsvp_id, memorial_id, name, email, phone, attendees, message, creation_time)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, out.RSVPID, out.MemorialID, out.Name, out.Email, out.Phone, out.Attendees, out.Message, out.CreationTime)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *rsvps) List(ctx context.Context, memorialID string) ([]*model.RSVP, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT rsvp_id, memorial_id, name, email, phone, attendees, message, creation_time
        FROM rsvps WHERE memorial_id=$1 ORDER BY creation_time ASC, seq ASC
    `, memorialID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*model.RSVP{}
	for rows.Next() {
		var v model.RSVP
		if err := rows.Scan(&v.RSVPID, &v.MemorialID, &v.Name, &v.Email, &v.Phone, &v.Attendees, &v.Message, &v.CreationTime); err != nil {
			return nil, err
		}
		v.CreationTime = v.CreationTime.UTC()
		out = append(out, &v)
	}
	return out, rows.Err()
}
