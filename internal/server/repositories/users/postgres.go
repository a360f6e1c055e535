// Package users provides PostgreSQL-backed persistence for account records,
// including the wallet binding and the per-user asset back-references.
package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"ipfsmarket/internal/common"
	"ipfsmarket/internal/dbx"
	"ipfsmarket/internal/server/models"
)

// PostgresRepository implements user storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, username, password_digest)
         VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.UserName, user.PasswordDigest).Scan(&user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrUserNameTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, username, password_digest, COALESCE(wallet, ''), assets, created_at FROM users
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, password_digest, COALESCE(wallet, ''), assets, created_at FROM users
		 WHERE username = $1
		 `
	return r.getOne(ctx, query, username)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var refs []byte
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.UserName, &user.PasswordDigest, &user.WalletAddress, &refs, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(refs) > 0 {
		if err := json.Unmarshal(refs, &user.AssetRefs); err != nil {
			return nil, fmt.Errorf("asset refs decode error: %w", err)
		}
	}

	return user, nil
}

// SetWalletAddress overwrites the bound wallet address. Re-binding the same
// or a different address is an idempotent overwrite.
func (r *PostgresRepository) SetWalletAddress(ctx context.Context, id string, walletAddress string) error {
	query :=
		`UPDATE users SET wallet = $2
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, walletAddress)
}

// AppendAssetRef appends a content id to the user's asset list.
func (r *PostgresRepository) AppendAssetRef(ctx context.Context, id string, cid string) error {
	query :=
		`UPDATE users SET assets = assets || to_jsonb($2::text)
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, cid)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
