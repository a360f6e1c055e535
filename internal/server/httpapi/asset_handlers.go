package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ipfsmarket/internal/common"
	"ipfsmarket/internal/server/services"
)

type saleRequest struct {
	CID string `json:"ipfs_hash"`
}

func (s *Server) uploadAsset(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		fail(c, common.ErrorValidation)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		fail(c, common.ErrorValidation)
		return
	}
	defer file.Close()

	in := services.UploadInput{
		File:        file,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Price:       c.PostForm("price"),
	}

	result, err := s.assets.Upload(c.Request.Context(), currentUser(c), in)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"file_cid":     result.FileCID,
		"metadata_cid": result.MetadataCID,
		"file_url":     result.FileURL,
		"metadata_url": result.MetadataURL,
	})
}

func (s *Server) userAssets(c *gin.Context) {
	user := currentUser(c)

	assets, err := s.assets.ListByOwner(c.Request.Context(), user.UserName)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"assets":  assets,
	})
}

func (s *Server) putForSale(c *gin.Context) {
	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CID == "" {
		fail(c, common.ErrorValidation)
		return
	}

	asset, err := s.assets.ListForSale(c.Request.Context(), req.CID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Asset is up for sale!",
		"asset_id":    asset.CID,
		"description": asset.Description,
		"author":      asset.Author,
	})
}

// displayAssets is the one public listing: no session guard, projected
// fields only. An empty marketplace is a distinct "no assets" outcome, not
// a server error.
func (s *Server) displayAssets(c *gin.Context) {
	assets, err := s.assets.ListAvailable(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assets": assets})
}
