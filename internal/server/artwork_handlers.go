package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/art-vbst/art-admin/internal/models"
)

// CreateArtworkRequest is the body of POST /artworks
type CreateArtworkRequest struct {
	Title          string                 `json:"title" binding:"required"`
	PaintingNumber *int                   `json:"painting_number"`
	PaintingYear   *int                   `json:"painting_year"`
	WidthInches    float64                `json:"width_inches" binding:"gte=0"`
	HeightInches   float64                `json:"height_inches" binding:"gte=0"`
	PriceCents     int64                  `json:"price_cents" binding:"gte=0"`
	Paper          *bool                  `json:"paper"`
	SortOrder      int                    `json:"sort_order"`
	Status         models.ArtworkStatus   `json:"status" binding:"omitempty,oneof=available pending sold not_for_sale unavailable coming_soon"`
	Medium         models.ArtworkMedium   `json:"medium" binding:"omitempty,oneof=oil_panel acrylic_panel oil_mdf oil_paper unknown"`
	Category       models.ArtworkCategory `json:"category" binding:"omitempty,oneof=figure landscape multi_figure other"`
}

// artworkColumns are the fields a client may change, with their coercion
var artworkColumns = map[string]func(any) (any, error){
	"title":           requiredString,
	"painting_number": nullableInt,
	"painting_year":   nullableInt,
	"width_inches":    nonNegativeFloat,
	"height_inches":   nonNegativeFloat,
	"price_cents":     nonNegativeInt,
	"paper":           nullableBool,
	"sort_order":      nullableInt,
	"status":          enumOf(models.ArtworkStatuses),
	"medium":          enumOf(models.ArtworkMediums),
	"category":        enumOf(models.ArtworkCategories),
}

func (s *Server) listArtworks(c *gin.Context) {
	var artworks []models.Artwork
	if err := s.db.Preload("Images").Order("sort_order ASC, created_at DESC").Find(&artworks).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list artworks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, artworks)
}

func (s *Server) getArtwork(c *gin.Context) {
	artwork, ok := s.findArtwork(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, artwork)
}

func (s *Server) createArtwork(c *gin.Context) {
	var req CreateArtworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	artwork := &models.Artwork{
		Title:          title,
		PaintingNumber: req.PaintingNumber,
		PaintingYear:   req.PaintingYear,
		WidthInches:    req.WidthInches,
		HeightInches:   req.HeightInches,
		PriceCents:     req.PriceCents,
		Paper:          req.Paper,
		SortOrder:      req.SortOrder,
		Status:         req.Status,
		Medium:         req.Medium,
		Category:       req.Category,
	}
	if artwork.Status == "" {
		artwork.Status = models.ArtworkAvailable
	}
	if artwork.Medium == "" {
		artwork.Medium = models.MediumUnknown
	}
	if artwork.Category == "" {
		artwork.Category = models.CategoryOther
	}
	if artwork.Status == models.ArtworkSold {
		now := time.Now().UTC()
		artwork.SoldAt = &now
	}

	if err := s.db.Create(artwork).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create artwork")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create artwork"})
		return
	}
	artwork.Images = []models.Image{}

	s.logger.Info().Str("artwork_id", artwork.ID).Str("title", artwork.Title).Msg("Artwork created")
	c.JSON(http.StatusCreated, artwork)
}

// updateArtwork applies the given fields. PUT additionally requires a title.
func (s *Server) updateArtwork(c *gin.Context) {
	artwork, ok := s.findArtwork(c, c.Param("id"))
	if !ok {
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if c.Request.Method == http.MethodPut {
		if _, ok := body["title"]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
			return
		}
	}

	updates, err := coerceColumns(body, artworkColumns)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if status, ok := updates["status"]; ok {
		switch {
		case status == string(models.ArtworkSold) && artwork.SoldAt == nil:
			updates["sold_at"] = time.Now().UTC()
		case status != string(models.ArtworkSold):
			updates["sold_at"] = nil
		}
	}

	if err := s.db.Model(artwork).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Str("artwork_id", artwork.ID).Msg("Failed to update artwork")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update artwork"})
		return
	}

	updated, ok := s.findArtwork(c, artwork.ID)
	if !ok {
		return
	}

	s.logger.Info().Str("artwork_id", artwork.ID).Int("fields", len(updates)).Msg("Artwork updated")
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteArtwork(c *gin.Context) {
	artwork, ok := s.findArtwork(c, c.Param("id"))
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("artwork_id = ?", artwork.ID).Delete(&models.Image{}).Error; err != nil {
			return err
		}
		return tx.Delete(artwork).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("artwork_id", artwork.ID).Msg("Failed to delete artwork")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete artwork"})
		return
	}

	for _, img := range artwork.Images {
		s.removeUpload(img.ImageURL)
	}

	s.logger.Info().Str("artwork_id", artwork.ID).Msg("Artwork deleted")
	c.Status(http.StatusNoContent)
}

// findArtwork loads an artwork with its images, writing 404 when missing
func (s *Server) findArtwork(c *gin.Context, id string) (*models.Artwork, bool) {
	var artwork models.Artwork
	if err := models.FindByIDWithPreload(s.db, id, &artwork, "Images"); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Artwork not found"})
			return nil, false
		}
		s.logger.Error().Err(err).Str("artwork_id", id).Msg("Failed to find artwork")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	if artwork.Images == nil {
		artwork.Images = []models.Image{}
	}
	return &artwork, true
}

// coerceColumns keeps the allowed keys and converts JSON values to column
// values
func coerceColumns(body map[string]any, allowed map[string]func(any) (any, error)) (map[string]any, error) {
	updates := make(map[string]any, len(body))
	for key, value := range body {
		coerce, ok := allowed[key]
		if !ok {
			return nil, fmt.Errorf("unknown field %q", key)
		}
		v, err := coerce(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		updates[key] = v
	}
	return updates, nil
}

func requiredString(v any) (any, error) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil, errors.New("must be a non-empty string")
	}
	return strings.TrimSpace(s), nil
}

func nullableInt(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return nil, errors.New("must be an integer")
	}
	return int(f), nil
}

func nonNegativeInt(v any) (any, error) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || f < 0 {
		return nil, errors.New("must be a non-negative integer")
	}
	return int64(f), nil
}

func nonNegativeFloat(v any) (any, error) {
	f, ok := v.(float64)
	if !ok || f < 0 {
		return nil, errors.New("must be a non-negative number")
	}
	return f, nil
}

func nullableBool(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, errors.New("must be a boolean")
	}
	return b, nil
}

func enumOf[T ~string](values []T) func(any) (any, error) {
	return func(v any) (any, error) {
		s, ok := v.(string)
		if ok {
			for _, allowed := range values {
				if string(allowed) == s {
					return s, nil
				}
			}
		}
		names := make([]string, len(values))
		for i, allowed := range values {
			names[i] = string(allowed)
		}
		return nil, fmt.Errorf("must be one of %s", strings.Join(names, ", "))
	}
}
