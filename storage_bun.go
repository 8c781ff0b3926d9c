package session

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// storedTokenID pins the single-slot semantics: the table never holds more
// than one row.
const storedTokenID = 1

// StoredToken is the bun model for the encrypted token slot.
type StoredToken struct {
	bun.BaseModel `bun:"table:session_tokens,alias:st"`

	ID         int64     `bun:"id,pk"`
	Ciphertext []byte    `bun:"ciphertext,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

// OpenTokenDB opens the sqlite-backed database used for durable session
// storage. The DSN follows sqlite conventions, e.g. "file:session.db".
func OpenTokenDB(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to open session database")
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// BunTokenStorage implements TokenStorage on top of bun.
type BunTokenStorage struct {
	db *bun.DB
}

var _ TokenStorage = (*BunTokenStorage)(nil)

// NewBunTokenStorage ensures the backing table exists and returns the storage.
func NewBunTokenStorage(ctx context.Context, db *bun.DB) (*BunTokenStorage, error) {
	if _, err := db.NewCreateTable().
		Model((*StoredToken)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to create session token table")
	}
	return &BunTokenStorage{db: db}, nil
}

func (s *BunTokenStorage) Load(ctx context.Context) ([]byte, error) {
	rec := new(StoredToken)
	err := s.db.NewSelect().
		Model(rec).
		Where("st.id = ?", storedTokenID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoStoredToken
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to load stored token")
	}
	return rec.Ciphertext, nil
}

func (s *BunTokenStorage) Save(ctx context.Context, ciphertext []byte) error {
	rec := &StoredToken{
		ID:         storedTokenID,
		Ciphertext: ciphertext,
		UpdatedAt:  time.Now(),
	}
	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (id) DO UPDATE").
		Set("ciphertext = EXCLUDED.ciphertext").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to save stored token")
	}
	return nil
}

func (s *BunTokenStorage) Delete(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*StoredToken)(nil)).
		Where("id = ?", storedTokenID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to delete stored token")
	}
	return nil
}
