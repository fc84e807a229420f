package server

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/art-vbst/art-admin/internal/models"
)

const (
	uploadsRoute   = "/uploads"
	maxUploadBytes = 20 << 20
)

var imageExtensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
}

func (s *Server) listImages(c *gin.Context) {
	artwork, ok := s.findArtwork(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, artwork.Images)
}

func (s *Server) getImage(c *gin.Context) {
	img, ok := s.findImage(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, img)
}

// updateImage only supports toggling the main-image flag. The flag may be a
// boolean or its string form, as sent by form-minded clients.
func (s *Server) updateImage(c *gin.Context) {
	img, ok := s.findImage(c)
	if !ok {
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, present := body["is_main_image"]
	if !present {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_main_image is required"})
		return
	}
	isMain, err := parseFlag(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_main_image: " + err.Error()})
		return
	}

	if err := s.setMainImage(s.db, img, isMain); err != nil {
		s.logger.Error().Err(err).Str("image_id", img.ID).Msg("Failed to update image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update image"})
		return
	}

	c.JSON(http.StatusOK, img)
}

func (s *Server) deleteImage(c *gin.Context) {
	img, ok := s.findImage(c)
	if !ok {
		return
	}

	if err := s.db.Delete(img).Error; err != nil {
		s.logger.Error().Err(err).Str("image_id", img.ID).Msg("Failed to delete image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete image"})
		return
	}
	s.removeUpload(img.ImageURL)

	s.logger.Info().Str("image_id", img.ID).Str("artwork_id", img.ArtworkID).Msg("Image deleted")
	c.Status(http.StatusNoContent)
}

// uploadImage stores a multipart image for an artwork
func (s *Server) uploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	artworkID := c.PostForm("artwork_id")
	if artworkID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "artwork_id is required"})
		return
	}
	artwork, ok := s.findArtwork(c, artworkID)
	if !ok {
		return
	}

	isMain := false
	if raw := c.PostForm("is_main_image"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_main_image must be true or false"})
			return
		}
		isMain = v
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image format"})
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}

	id := uuid.NewString()
	name := id + imageExtensions[format]
	if err := s.saveUpload(file, name); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return
	}

	width, height := cfg.Width, cfg.Height
	img := &models.Image{
		BaseModel:   models.BaseModel{ID: id},
		ArtworkID:   artwork.ID,
		ImageURL:    path.Join(uploadsRoute, name),
		ImageWidth:  &width,
		ImageHeight: &height,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(img).Error; err != nil {
			return err
		}
		// The first image of an artwork becomes its main image
		if isMain || len(artwork.Images) == 0 {
			return s.setMainImage(tx, img, true)
		}
		return nil
	})
	if err != nil {
		s.removeUpload(img.ImageURL)
		s.logger.Error().Err(err).Msg("Failed to create image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create image"})
		return
	}

	s.logger.Info().
		Str("image_id", img.ID).
		Str("artwork_id", artwork.ID).
		Str("filename", header.Filename).
		Int("width", width).
		Int("height", height).
		Msg("Image uploaded")

	c.JSON(http.StatusCreated, img)
}

// setMainImage sets img's flag; making it main clears the artwork's other
// images
func (s *Server) setMainImage(db *gorm.DB, img *models.Image, isMain bool) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if isMain {
			if err := tx.Model(&models.Image{}).
				Where("artwork_id = ? AND id <> ?", img.ArtworkID, img.ID).
				Update("is_main_image", false).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(img).Update("is_main_image", isMain).Error; err != nil {
			return err
		}
		img.IsMainImage = isMain
		return nil
	})
}

// findImage loads the image named by the route, scoped to its artwork
func (s *Server) findImage(c *gin.Context) (*models.Image, bool) {
	var img models.Image
	err := s.db.Where("id = ? AND artwork_id = ?", c.Param("imageId"), c.Param("id")).First(&img).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &img, true
}

func (s *Server) saveUpload(src io.Reader, name string) error {
	dst, err := os.Create(filepath.Join(s.config.UploadDir, name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// removeUpload deletes a stored file given its public URL. URLs outside the
// upload route are ignored.
func (s *Server) removeUpload(imageURL string) {
	if !strings.HasPrefix(imageURL, uploadsRoute+"/") {
		return
	}
	name := path.Base(imageURL)
	if err := os.Remove(filepath.Join(s.config.UploadDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn().Err(err).Str("file", name).Msg("Failed to remove upload")
	}
}

func parseFlag(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("invalid boolean %q", val)
		}
		return b, nil
	default:
		return false, errors.New("must be a boolean")
	}
}
