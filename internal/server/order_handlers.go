package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/art-vbst/art-admin/internal/models"
)

// UpdateOrderRequest moves an order to a new status
type UpdateOrderRequest struct {
	Status       models.OrderStatus `json:"status" binding:"required,oneof=pending processing shipped delivered canceled"`
	TrackingLink *string            `json:"tracking_link" binding:"omitempty,url"`
}

func (s *Server) listOrders(c *gin.Context) {
	query := s.db.Preload("Payments").Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		if !validOrderStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (s *Server) getOrder(c *gin.Context) {
	order, ok := s.findOrder(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) updateOrder(c *gin.Context) {
	order, ok := s.findOrder(c, c.Param("id"))
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if order.Status == models.OrderCanceled && req.Status != models.OrderCanceled {
		c.JSON(http.StatusConflict, gin.H{"error": "Order is canceled"})
		return
	}

	previous := order.Status
	updates := map[string]any{"status": string(req.Status)}
	if req.TrackingLink != nil {
		updates["tracking_link"] = *req.TrackingLink
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return err
		}
		// Orders released by a cancellation free their artworks for sale again
		if req.Status == models.OrderCanceled && previous != models.OrderCanceled {
			return tx.Model(&models.Artwork{}).
				Where("order_id = ?", order.ID).
				Updates(map[string]any{"status": string(models.ArtworkAvailable), "order_id": nil, "sold_at": nil}).Error
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("Failed to update order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("from", string(previous)).
		Str("to", string(req.Status)).
		Msg("Order status changed")

	updated, ok := s.findOrder(c, order.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) findOrder(c *gin.Context, id string) (*models.Order, bool) {
	var order models.Order
	if err := models.FindByIDWithPreload(s.db, id, &order, "Payments"); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return nil, false
		}
		s.logger.Error().Err(err).Str("order_id", id).Msg("Failed to find order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	if order.Payments == nil {
		order.Payments = []models.Payment{}
	}
	return &order, true
}

func validOrderStatus(status string) bool {
	switch models.OrderStatus(status) {
	case models.OrderPending, models.OrderProcessing, models.OrderShipped, models.OrderDelivered, models.OrderCanceled:
		return true
	}
	return false
}
