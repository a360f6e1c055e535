// Package assets provides PostgreSQL-backed persistence for asset metadata
// records, keyed by content id.
package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ipfsmarket/internal/common"
	"ipfsmarket/internal/dbx"
	"ipfsmarket/internal/server/models"
)

const assetColumns = `ipfs_hash, metadata_hash, name, description, author, wallet_address, created_at, expiry, file_name, content_type, price, available`

// PostgresRepository implements asset storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, asset *models.Asset) error {
	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		asset.CID, asset.MetadataCID, asset.Name, asset.Description, asset.Author,
		asset.WalletAddress, asset.CreatedAt, asset.Expiry, asset.FileName,
		asset.ContentType, asset.Price, asset.Available)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByCID(ctx context.Context, cid string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE ipfs_hash = $1`

	asset := &models.Asset{}
	err := r.db.QueryRowContext(ctx, query, cid).Scan(
		&asset.CID, &asset.MetadataCID, &asset.Name, &asset.Description, &asset.Author,
		&asset.WalletAddress, &asset.CreatedAt, &asset.Expiry, &asset.FileName,
		&asset.ContentType, &asset.Price, &asset.Available)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return asset, nil
}

// SetAvailable flips the sale flag. The update is a constant write, so
// concurrent calls on the same content id are last-writer-wins safe.
func (r *PostgresRepository) SetAvailable(ctx context.Context, cid string, available bool) error {
	query := `UPDATE assets SET available = $2 WHERE ipfs_hash = $1`

	res, err := r.db.ExecContext(ctx, query, cid, available)
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

// ListByAuthor returns all assets owned by author, in storage order.
func (r *PostgresRepository) ListByAuthor(ctx context.Context, author string) ([]*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE author = $1`
	return r.list(ctx, query, author)
}

// ListAvailable returns all assets currently flagged for sale.
func (r *PostgresRepository) ListAvailable(ctx context.Context) ([]*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE available = TRUE`
	return r.list(ctx, query)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Asset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select assets: %w", err)
	}
	defer rows.Close()

	var result []*models.Asset
	for rows.Next() {
		var item models.Asset
		if err := rows.Scan(
			&item.CID, &item.MetadataCID, &item.Name, &item.Description, &item.Author,
			&item.WalletAddress, &item.CreatedAt, &item.Expiry, &item.FileName,
			&item.ContentType, &item.Price, &item.Available,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
