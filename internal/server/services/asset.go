// This file implements AssetService: the asset lifecycle from upload/pin
// through listing for sale, plus the owner and public listings. An asset has
// two states, unlisted (initial) and listed; nothing here ever deletes an
// asset or reverts the sale flag.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"ipfsmarket/internal/common"
	"ipfsmarket/internal/dbx"
	"ipfsmarket/internal/logging"
	"ipfsmarket/internal/server/config"
	"ipfsmarket/internal/server/models"
	"ipfsmarket/internal/server/repositories/repomanager"
)

// Pinner is the content-pinning collaborator. Both calls return the content
// id of the pinned payload.
type Pinner interface {
	PinFile(ctx context.Context, r io.Reader, filename string) (string, error)
	PinJSON(ctx context.Context, v any) (string, error)
	GatewayURL(cid string) string
}

// UploadInput carries one multipart upload: the file stream plus the
// user-supplied metadata fields.
type UploadInput struct {
	File        io.Reader
	FileName    string
	ContentType string
	Name        string
	Description string
	Price       string
}

// UploadResult reports the pinned content ids and their gateway URLs.
type UploadResult struct {
	FileCID     string `json:"file_cid"`
	MetadataCID string `json:"metadata_cid"`
	FileURL     string `json:"file_url"`
	MetadataURL string `json:"metadata_url"`
}

// AssetService manages the asset lifecycle.
type AssetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	pinner      Pinner
	ttlMonths   int
	logger      logging.Logger

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// NewAssetService constructs an AssetService using repositories, the pinning
// collaborator, and server config.
func NewAssetService(db *sql.DB, m repomanager.RepositoryManager, p Pinner, l logging.Logger, cfg *config.Config) *AssetService {
	return &AssetService{
		db:          db,
		repomanager: m,
		pinner:      p,
		ttlMonths:   cfg.AssetTTLMonths,
		logger:      l.With("module", "asset_service"),
		now:         time.Now,
	}
}

// Upload pins the file bytes, builds the metadata document with a computed
// expiry, pins the metadata, and persists the asset together with the owner's
// back-reference in one transaction. A pinning failure aborts before any
// persistence, so a failed upload leaves no partial state.
func (s *AssetService) Upload(ctx context.Context, owner *models.User, in UploadInput) (*UploadResult, error) {
	if in.File == nil || in.FileName == "" {
		return nil, common.ErrorValidation
	}

	cid, err := s.pinner.PinFile(ctx, in.File, in.FileName)
	if err != nil {
		s.logger.Error(ctx, "file pin failed", "file", in.FileName, "error", err)
		return nil, common.ErrUploadFailed
	}

	createdAt := s.now().UTC()
	expiry := addMonths(createdAt, s.ttlMonths)

	name := in.Name
	if name == "" {
		name = in.FileName
	}

	asset := &models.Asset{
		CID:           cid,
		Name:          name,
		Description:   in.Description,
		Author:        owner.UserName,
		WalletAddress: owner.WalletAddress,
		CreatedAt:     createdAt.Format(time.RFC3339),
		Expiry:        expiry.Format(time.RFC3339),
		FileName:      in.FileName,
		ContentType:   in.ContentType,
		Price:         in.Price,
		Available:     false,
	}

	metadataCID, err := s.pinner.PinJSON(ctx, asset)
	if err != nil {
		s.logger.Error(ctx, "metadata pin failed", "cid", cid, "error", err)
		return nil, common.ErrUploadFailed
	}
	asset.MetadataCID = metadataCID

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Assets(tx).Create(ctx, asset); err != nil {
			return err
		}
		return s.repomanager.Users(tx).AppendAssetRef(ctx, owner.ID, cid)
	})
	if err != nil {
		// Pin artifacts already exist upstream at this point; that
		// inconsistency is accepted and reported, not remediated.
		return nil, fmt.Errorf("error persisting asset: %w", err)
	}

	return &UploadResult{
		FileCID:     cid,
		MetadataCID: metadataCID,
		FileURL:     s.pinner.GatewayURL(cid),
		MetadataURL: s.pinner.GatewayURL(metadataCID),
	}, nil
}

// ListForSale marks the asset identified by cid as available, after checking
// that its expiry is present, parseable, and in the future. The transition is
// idempotent: re-listing an already-listed, non-expired asset succeeds.
func (s *AssetService) ListForSale(ctx context.Context, cid string) (*models.Asset, error) {
	repo := s.repomanager.Assets(s.db)

	asset, err := repo.GetByCID(ctx, cid)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAssetNotFound
		}
		return nil, common.ErrorInternal
	}

	if asset.Expiry == "" {
		return nil, common.ErrExpiryMissing
	}
	expiry, err := time.Parse(time.RFC3339, asset.Expiry)
	if err != nil {
		return nil, common.ErrExpiryInvalid
	}
	if !expiry.After(s.now().UTC()) {
		return nil, common.ErrAssetExpired
	}

	if err := repo.SetAvailable(ctx, cid, true); err != nil {
		return nil, common.ErrorInternal
	}
	asset.Available = true
	return asset, nil
}

// ListByOwner returns all assets authored by username, in storage order.
func (s *AssetService) ListByOwner(ctx context.Context, username string) ([]*models.Asset, error) {
	assets, err := s.repomanager.Assets(s.db).ListByAuthor(ctx, username)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return assets, nil
}

// ListAvailable returns the public projection of assets currently for sale.
// Assets whose expiry has passed stay flagged available in storage (no
// sweeper exists) but are filtered out of the listing here; so are assets
// whose expiry cannot be parsed. An empty result yields
// common.ErrNoAssetsForSale, distinct from a store failure.
func (s *AssetService) ListAvailable(ctx context.Context) ([]models.AvailableAsset, error) {
	assets, err := s.repomanager.Assets(s.db).ListAvailable(ctx)
	if err != nil {
		return nil, common.ErrorInternal
	}

	now := s.now().UTC()
	result := make([]models.AvailableAsset, 0, len(assets))
	for _, a := range assets {
		expiry, err := time.Parse(time.RFC3339, a.Expiry)
		if err != nil {
			s.logger.Warn(ctx, "skipping asset with unparseable expiry", "cid", a.CID)
			continue
		}
		if !expiry.After(now) {
			continue
		}
		result = append(result, models.AvailableAsset{
			Author:      a.Author,
			Description: a.Description,
			CID:         a.CID,
		})
	}

	if len(result) == 0 {
		return nil, common.ErrNoAssetsForSale
	}
	return result, nil
}

// addMonths advances t by whole calendar months, clamping the day to the last
// day of the target month (Dec 31 + 2 months is Feb 28/29, not Mar 2/3).
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, months, 0)
	lastDay := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month())
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
