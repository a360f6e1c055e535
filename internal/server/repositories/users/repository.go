package users

import (
	"context"

	"ipfsmarket/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUserName(ctx context.Context, username string) (*models.User, error)
	SetWalletAddress(ctx context.Context, id string, walletAddress string) error
	AppendAssetRef(ctx context.Context, id string, cid string) error
}
