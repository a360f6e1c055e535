package assets

import (
	"context"

	"ipfsmarket/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByCID(ctx context.Context, cid string) (*models.Asset, error)
	SetAvailable(ctx context.Context, cid string, available bool) error
	ListByAuthor(ctx context.Context, author string) ([]*models.Asset, error)
	ListAvailable(ctx context.Context) ([]*models.Asset, error)
}
