package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Tokens interface {
	repository.Repository[*Token]

	Save(ctx context.Context, token *Token) (*Token, error)
	SaveTx(ctx context.Context, tx bun.IDB, token *Token) (*Token, error)

	FindValid(ctx context.Context, raw string, tokenType TokenType) (*Token, error)
	FindValidTx(ctx context.Context, tx bun.IDB, raw string, tokenType TokenType) (*Token, error)

	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	DeleteAllByUserAndType(ctx context.Context, userID uuid.UUID, tokenType TokenType) (int, error)
	DeleteAllByUserAndTypeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, tokenType TokenType) (int, error)
}

type tokens struct {
	repository.Repository[*Token]
	db *bun.DB
}

var (
	_ Tokens                        = (*tokens)(nil)
	_ repository.Repository[*Token] = (*tokens)(nil)
)

func NewTokensRepository(db *bun.DB) Tokens {
	repo := repository.NewRepository[*Token](db, repository.ModelHandlers[*Token]{
		NewRecord: func() *Token { return &Token{} },
		GetID: func(t *Token) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Token, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &tokens{
		Repository: repo,
		db:         db,
	}
}

func (r *tokens) Save(ctx context.Context, token *Token) (*Token, error) {
	return r.SaveTx(ctx, r.db, token)
}

// SaveTx persists a token grant. Access tokens are signature only and must
// never reach the store.
func (r *tokens) SaveTx(ctx context.Context, tx bun.IDB, token *Token) (*Token, error) {
	if token == nil {
		return nil, repository.NewRecordNotFound()
	}

	if !token.Type.Persisted() {
		return nil, errInvalidTokenKind(token.Type)
	}

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	return r.Repository.CreateTx(ctx, tx, token)
}

func (r *tokens) FindValid(ctx context.Context, raw string, tokenType TokenType) (*Token, error) {
	return r.FindValidTx(ctx, r.db, raw, tokenType)
}

// FindValidTx looks up a usable row for the raw token string. Missing,
// blacklisted, expired, and wrong-type rows all come back as the same
// ErrTokenNotFound so callers cannot distinguish why a token failed.
func (r *tokens) FindValidTx(ctx context.Context, tx bun.IDB, raw string, tokenType TokenType) (*Token, error) {
	record := &Token{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", raw).
		Where("?TableAlias.type = ?", string(tokenType)).
		Where("?TableAlias.blacklisted = ?", false).
		Where("?TableAlias.expires_at > ?", time.Now()).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	return record, nil
}

func (r *tokens) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.DeleteByIDTx(ctx, r.db, id)
}

func (r *tokens) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*Token)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

func (r *tokens) DeleteAllByUserAndType(ctx context.Context, userID uuid.UUID, tokenType TokenType) (int, error) {
	return r.DeleteAllByUserAndTypeTx(ctx, r.db, userID, tokenType)
}

// DeleteAllByUserAndTypeTx purges every grant of the given type for a user
// and reports how many rows went away. Used after a successful reset or
// verification so stale tokens cannot be replayed.
func (r *tokens) DeleteAllByUserAndTypeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, tokenType TokenType) (int, error) {
	res, err := tx.NewDelete().
		Model((*Token)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.type = ?", string(tokenType)).
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}

	return int(count), nil
}
