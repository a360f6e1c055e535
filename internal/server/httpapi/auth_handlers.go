package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ipfsmarket/internal/common"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type verifyWalletRequest struct {
	WalletAddress string `json:"wallet_address"`
	Signature     string `json:"signature"`
}

func (s *Server) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, common.ErrorValidation)
		return
	}

	if _, err := s.users.SignUp(c.Request.Context(), req.Username, req.Password); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user successfully registered"})
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, common.ErrorValidation)
		return
	}

	token, user, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookieName, token, s.cookieMaxAge, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"message":  "User logged in!",
		"username": user.UserName,
		"token":    token,
	})
}

func (s *Server) logout(c *gin.Context) {
	user := currentUser(c)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
		"user":    user.ID,
	})
}

// verifyToken lets clients probe whether their token is still valid; the
// session guard has already done the work by the time we get here.
func (s *Server) verifyToken(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"user":  user.UserName,
	})
}

func (s *Server) verifyWallet(c *gin.Context) {
	var req verifyWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, common.ErrorValidation)
		return
	}
	if req.WalletAddress == "" || req.Signature == "" {
		fail(c, common.ErrorValidation)
		return
	}

	user := currentUser(c)
	if err := s.users.BindWallet(c.Request.Context(), user.ID, req.WalletAddress, req.Signature); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Wallet verified"})
}
