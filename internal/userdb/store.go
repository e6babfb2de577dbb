// Package userdb persists user records. Registration is a two-phase
// write: the placeholder row carries the plaintext only until the
// insert hooks replace it with the password hash and the derived
// channel token. Both phases run under the same per-username lock and
// readers are never handed a half-initialized row.
package userdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	sqlite3 "github.com/mattn/go-sqlite3"
)

type (
	Store struct {
		db *sql.DB

		// serializes the insert+finalize pair per username
		locks [64]sync.Mutex

		hookmtx sync.Mutex
		hooks   []InsertHook
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		Channel      string
	}

	// InsertHook runs synchronously after a row insert commits, while
	// the username lock is still held. Registration uses it to rewrite
	// the plaintext into its final hashed form.
	InsertHook func(ctx context.Context, username, plaintext string) error
)

func Open(ctx context.Context, path string) (*Store, error) {
	connstr := fmt.Sprintf("file:%v?_journal=wal&_busy_timeout=5000&mode=rwc", path)
	conn, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open user database %v, cause %w", path, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to ping user database %v, cause %w", path, err)
	}
	s := &Store{db: conn}
	err = s.init(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to init user database %v, cause %w", path, err)
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `create table if not exists users(
		id integer primary key autoincrement,
		username text not null unique,
		password text not null,
		channel text)`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// OnInsert registers fn to run after every completed insert. Hooks
// must be registered before the store starts taking registrations.
func (s *Store) OnInsert(fn InsertHook) {
	s.hookmtx.Lock()
	s.hooks = append(s.hooks, fn)
	s.hookmtx.Unlock()
}

func (s *Store) lockFor(username string) *sync.Mutex {
	return &s.locks[xxhash.Sum64String(username)%uint64(len(s.locks))]
}

// Register inserts the placeholder row and runs the insert hooks
// before releasing the username lock. When Register returns nil the
// row is fully finalized; until then lookups report UserNotReady.
func (s *Store) Register(ctx context.Context, username, plaintext string) error {
	if username == "" || plaintext == "" {
		return errors.New("username and password must not be empty")
	}
	mtx := s.lockFor(username)
	mtx.Lock()
	defer mtx.Unlock()
	_, err := s.db.ExecContext(ctx, `insert into users (username, password) values (?, ?)`, username, plaintext)
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return UsernameTaken{Username: username}
	} else if err != nil {
		return fmt.Errorf("unable to insert user %v, cause %w", username, err)
	}
	s.hookmtx.Lock()
	hooks := s.hooks
	s.hookmtx.Unlock()
	for _, fn := range hooks {
		err = fn(ctx, username, plaintext)
		if err != nil {
			return fmt.Errorf("insert hook failed for user %v, cause %w", username, err)
		}
	}
	return nil
}

// Finalize replaces the plaintext with its hash and sets the channel
// token, completing the second phase of a registration.
func (s *Store) Finalize(ctx context.Context, username, passwordHash, channel string) error {
	res, err := s.db.ExecContext(ctx, `update users set password = ?, channel = ? where username = ?`,
		passwordHash, channel, username)
	if err != nil {
		return fmt.Errorf("unable to finalize user %v, cause %w", username, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return UserNotFound{Username: username}
	}
	return nil
}

// FindByUsername returns the finalized record for username. Rows still
// waiting on their insert hooks surface as UserNotReady and their
// password column is left untouched, so the plaintext phase of a
// registration cannot leak through a lookup.
func (s *Store) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `select id, channel from users where username = ?`, username)
	var id int64
	var channel sql.NullString
	err := row.Scan(&id, &channel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, UserNotFound{Username: username}
	} else if err != nil {
		return nil, fmt.Errorf("unable to lookup user %v, cause %w", username, err)
	}
	if !channel.Valid || channel.String == "" {
		return nil, UserNotReady{Username: username}
	}
	var hash string
	err = s.db.QueryRowContext(ctx, `select password from users where id = ?`, id).Scan(&hash)
	if err != nil {
		return nil, fmt.Errorf("unable to lookup user %v, cause %w", username, err)
	}
	return &User{ID: id, Username: username, PasswordHash: hash, Channel: channel.String}, nil
}

// Seed inserts the distinguished bootstrap user iff no row exists for
// it, going through the ordinary Register path so the seed credentials
// are hashed exactly like any other registration.
func (s *Store) Seed(ctx context.Context, username, plaintext string) error {
	_, err := s.FindByUsername(ctx, username)
	var missing UserNotFound
	if errors.As(err, &missing) {
		return s.Register(ctx, username, plaintext)
	}
	var notReady UserNotReady
	if errors.As(err, &notReady) {
		// a previous run died between the two phases; nothing trusts
		// this row yet, so hand it back to the operator
		return fmt.Errorf("seed user %v exists but was never finalized, remove the row and restart", username)
	}
	return err
}

// Usernames lists every registered username, finalized or not.
func (s *Store) Usernames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `select username from users order by username asc`)
	if err != nil {
		return nil, fmt.Errorf("unable to list users, cause %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		err = rows.Scan(&name)
		if err != nil {
			return nil, fmt.Errorf("unable to list users, cause %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
