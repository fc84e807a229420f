package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"

	"github.com/art-vbst/art-admin/internal/models"
)

const (
	artworksPath = "artworks"
	imagesPath   = "images"
	ordersPath   = "orders"
)

// ErrMissingFile is returned when an image upload has no file content
var ErrMissingFile = errors.New("please select a file")

// Artworks returns the artworks resource
func (c *Client) Artworks() *Endpoint[models.Artwork] {
	return NewEndpoint[models.Artwork](c, artworksPath)
}

// Images returns the images resource nested under an artwork
func (c *Client) Images(artworkID string) *Endpoint[models.Image] {
	return NewEndpoint[models.Image](c, path.Join(artworksPath, artworkID, imagesPath))
}

// Orders returns the orders resource
func (c *Client) Orders() *Endpoint[models.Order] {
	return NewEndpoint[models.Order](c, ordersPath)
}

// UploadImage uploads an image file for an artwork as multipart form data
func (c *Client) UploadImage(ctx context.Context, artworkID, filename string, file io.Reader, isMain bool) (*models.Image, error) {
	if file == nil || filename == "" {
		return nil, ErrMissingFile
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	if err := w.WriteField("artwork_id", artworkID); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := w.WriteField("is_main_image", strconv.FormatBool(isMain)); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	resp, err := c.Do(ctx, &Request{
		Method:      http.MethodPost,
		Path:        imagesPath,
		RawBody:     buf.Bytes(),
		ContentType: w.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	return JSON[models.Image](resp)
}

// SetPrimaryImage sets or clears the image's main-image flag
func (c *Client) SetPrimaryImage(ctx context.Context, img *models.Image, primary bool) (*models.Image, error) {
	return c.Images(img.ArtworkID).Update(ctx, img.ID, map[string]string{
		"is_main_image": strconv.FormatBool(primary),
	}, true)
}

// TogglePrimaryImage flips the image's main-image flag
func (c *Client) TogglePrimaryImage(ctx context.Context, img *models.Image) (*models.Image, error) {
	return c.SetPrimaryImage(ctx, img, !img.IsMainImage)
}

// ActiveOrders lists orders awaiting fulfilment, oldest first
func (c *Client) ActiveOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := c.Orders().List(ctx, url.Values{"status": {string(models.OrderProcessing)}})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}

// OrderStatusUpdate is the body of an order status transition
type OrderStatusUpdate struct {
	Status       models.OrderStatus `json:"status"`
	TrackingLink string             `json:"tracking_link,omitempty"`
}

// ShipOrder marks an order shipped with an optional tracking link
func (c *Client) ShipOrder(ctx context.Context, id, trackingLink string) (*models.Order, error) {
	return c.Orders().Update(ctx, id, OrderStatusUpdate{
		Status:       models.OrderShipped,
		TrackingLink: trackingLink,
	}, true)
}

// DeliverOrder marks an order delivered
func (c *Client) DeliverOrder(ctx context.Context, id string) (*models.Order, error) {
	return c.Orders().Update(ctx, id, OrderStatusUpdate{Status: models.OrderDelivered}, true)
}
