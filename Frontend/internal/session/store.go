// Package session keeps per-visitor state (auth token, role, display
// currency, theme, pending toasts) in a SQLite table behind a signed
// session-id cookie.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/config"
)

// Open opens the session database. driver is "sqlite" (pure Go) or
// "sqlite3" (cgo).
func Open(driver, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	var dsn string
	switch driver {
	case "sqlite":
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	case "sqlite3":
		dsn = path + "?_busy_timeout=5000&_journal_mode=WAL"
	default:
		return nil, fmt.Errorf("unsupported session driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(2 * time.Minute)
	return db, nil
}

// Store is a gorilla sessions.Store persisting values in SQLite.
type Store struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	db     *sql.DB
	ownsDB bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// OpenStore opens the configured database, migrates it and starts the
// sweeper. Close also closes the database.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	db, err := Open(cfg.SessionDriver, cfg.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	s, err := NewStore(ctx, db, []byte(cfg.SessionSecret))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	s.MaxAge(cfg.SessionMaxAge)
	s.Options.Secure = cfg.SessionSecure
	s.StartSweeper(15 * time.Minute)
	return s, nil
}

// NewStore migrates the sessions table. keyPairs follow
// securecookie.CodecsFromPairs: hash key, optional block key, ...
func NewStore(ctx context.Context, db *sql.DB, keyPairs ...[]byte) (*Store, error) {
	s := &Store{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   7 * 24 * 3600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		db: db,
	}
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxLength(0)
		}
	}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate sessions: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions(
  id           TEXT PRIMARY KEY,
  data         TEXT NOT NULL,
  expires_unix INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_unix);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// MaxAge sets the cookie and row lifetime in seconds.
func (s *Store) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns the stored session named by the request cookie, or a fresh
// one when the cookie is missing, tampered with or expired.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		log.Debug().Err(err).Msg("session cookie rejected")
		session.ID = ""
		return session, nil
	}
	found, err := s.load(r.Context(), session)
	if err != nil {
		return session, err
	}
	if !found {
		session.ID = ""
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if _, err := s.db.ExecContext(r.Context(), `DELETE FROM sessions WHERE id=?`, session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	expires := time.Now().Add(time.Duration(session.Options.MaxAge) * time.Second).Unix()
	_, err = s.db.ExecContext(r.Context(), `
INSERT INTO sessions(id, data, expires_unix) VALUES(?,?,?)
ON CONFLICT(id) DO UPDATE SET data=excluded.data, expires_unix=excluded.expires_unix`,
		session.ID, data, expires)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	cookie, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), cookie, session.Options))
	return nil
}

func (s *Store) load(ctx context.Context, session *sessions.Session) (bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE id=? AND expires_unix > ?`, session.ID, time.Now().Unix()).
		Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := securecookie.DecodeMulti(session.Name(), data, &session.Values, s.Codecs...); err != nil {
		log.Warn().Err(err).Str("session", session.ID).Msg("stored session unreadable")
		return false, nil
	}
	return true, nil
}

// DeleteExpired removes rows past their expiry and reports how many.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_unix <= ?`, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartSweeper deletes expired sessions every interval until Close.
func (s *Store) StartSweeper(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := s.DeleteExpired(ctx)
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("session sweep failed")
					continue
				}
				if n > 0 {
					log.Debug().Int64("removed", n).Msg("expired sessions swept")
				}
			}
		}
	}()
}

// Close stops the sweeper, and closes the database when OpenStore
// opened it.
func (s *Store) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	if s.ownsDB {
		s.ownsDB = false
		if err := s.db.Close(); err != nil {
			log.Warn().Err(err).Msg("close session db")
		}
	}
}
