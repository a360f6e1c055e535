// Package httpapi exposes the marketplace over HTTP with gin. All state
// changes go through the services; this layer only extracts tokens, binds
// request payloads, and maps the error taxonomy onto status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ipfsmarket/internal/common"
	"ipfsmarket/internal/logging"
	"ipfsmarket/internal/server/config"
	"ipfsmarket/internal/server/services"
)

// Server wires the HTTP routes to the user and asset services.
type Server struct {
	addr         string
	logger       logging.Logger
	users        *services.UserService
	assets       *services.AssetService
	cookieMaxAge int
}

func NewServer(l logging.Logger, us *services.UserService, as *services.AssetService, cfg *config.Config) *Server {
	return &Server{
		addr:         cfg.EndpointAddr,
		logger:       l.With("module", "http_server"),
		users:        us,
		assets:       as,
		cookieMaxAge: int(cfg.TokenValidityDuration.Seconds()),
	}
}

// Router builds the gin engine with the public and token-guarded routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/signup", s.signup)
	r.POST("/login", s.login)
	r.GET("/display-all-assets", s.displayAssets)

	protected := r.Group("/", s.checkToken)
	protected.POST("/logout", s.logout)
	protected.GET("/verify", s.verifyToken)
	protected.POST("/verify_wallet", s.verifyWallet)
	protected.POST("/upload_asset", s.uploadAsset)
	protected.GET("/user_assets", s.userAssets)
	protected.POST("/sale", s.putForSale)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		_ = srv.Shutdown(context.Background())
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// statusFor maps the error taxonomy onto HTTP status codes. Every auth
// failure surfaces as the same rejection class with a distinguishable message.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrMissingToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrUserNotFound),
		errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrAssetNotFound),
		errors.Is(err, common.ErrNoAssetsForSale):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrUserNameTaken),
		errors.Is(err, common.ErrInvalidSignature),
		errors.Is(err, common.ErrExpiryMissing),
		errors.Is(err, common.ErrExpiryInvalid),
		errors.Is(err, common.ErrAssetExpired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"message": err.Error()})
}
