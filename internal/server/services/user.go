// Package services contains server-side business logic. This file implements
// UserService: signup, login (minting bearer tokens), token authentication,
// and wallet binding.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"ipfsmarket/internal/common"
	"ipfsmarket/internal/server/auth"
	"ipfsmarket/internal/server/config"
	"ipfsmarket/internal/server/models"
	"ipfsmarket/internal/server/repositories/repomanager"
)

// WalletVerifier proves control of a wallet address from a signed challenge.
// All verification failures collapse to false.
type WalletVerifier interface {
	Verify(walletAddress, signature string) bool
}

// UserService provides account-related operations:
//   - SignUp: create users
//   - Login: verify credentials and mint a bearer token
//   - Authenticate: resolve a presented token to its owning user
//   - BindWallet: attach a verified wallet address to a user
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	verifier              WalletVerifier
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, v WalletVerifier, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		verifier:              v,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// SignUp creates a new user with a bcrypt digest of password. A taken
// username yields common.ErrUserNameTaken.
func (s *UserService) SignUp(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, common.ErrorValidation
	}

	digest, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{ID: uuid.NewString(), UserName: username, PasswordDigest: digest}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrUserNameTaken) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}
	return u, nil
}

// Login verifies the credentials and returns a signed bearer token together
// with the user. Unknown usernames and wrong passwords are indistinguishable
// to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	if username == "" || password == "" {
		return "", nil, common.ErrorValidation
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUserName(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrInvalidCredentials
		}
		return "", nil, common.ErrorInternal
	}
	if !auth.CheckPassword(user.PasswordDigest, password) {
		return "", nil, common.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", nil, common.ErrorInternal
	}
	return token, user, nil
}

// Authenticate resolves a presented token to its owning user. It fails with
// common.ErrMissingToken for an empty token, common.ErrTokenExpired /
// common.ErrInvalidToken from token validation, and common.ErrUserNotFound
// when a valid token references an absent user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrMissingToken
	}

	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// BindWallet verifies the challenge signature and stores walletAddress on the
// user record. Successful verification is the sole precondition; re-binding
// simply overwrites the stored address.
func (s *UserService) BindWallet(ctx context.Context, userID, walletAddress, signature string) error {
	if !s.verifier.Verify(walletAddress, signature) {
		return common.ErrInvalidSignature
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.SetWalletAddress(ctx, userID, walletAddress); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUserNotFound
		}
		return common.ErrorInternal
	}
	return nil
}
