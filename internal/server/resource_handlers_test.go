package server

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/art-vbst/art-admin/internal/cli/client"
	"github.com/art-vbst/art-admin/internal/models"
)

func createArtwork(t *testing.T, c *client.Client, title string) *models.Artwork {
	t.Helper()
	artwork, err := c.Artworks().Create(context.Background(), map[string]any{
		"title":         title,
		"width_inches":  12,
		"height_inches": 9.5,
		"price_cents":   125000,
		"status":        "available",
		"medium":        "oil_panel",
		"category":      "figure",
	})
	require.NoError(t, err)
	return artwork
}

func TestArtworks_CreateGetList(t *testing.T) {
	_, ts := newTestServer(t)
	c := signedInClient(t, ts)
	ctx := context.Background()

	created := createArtwork(t, c, "  Harbor at Dusk ")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Harbor at Dusk", created.Title)
	assert.Equal(t, models.ArtworkAvailable, created.Status)
	assert.Equal(t, 9.5, created.HeightInches)
	assert.Empty(t, created.Images)

	got, err := c.Artworks().Get(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, int64(125000), got.PriceCents)

	list, err := c.Artworks().List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestArtworks_CreateDefaults(t *testing.T) {
	_, ts := newTestServer(t)
	c := signedInClient(t, ts)

	artwork, err := c.Artworks().Create(context.Background(), map[string]any{"title": "Untitled"})
	require.NoError(t, err)
	assert.Equal(t, models.ArtworkAvailable, artwork.Status)
	assert.Equal(t, models.MediumUnknown, artwork.Medium)
	assert.Equal(t, models.CategoryOther, artwork.Category)
}

func TestArtworks_CreateRejectsInvalid(t *testing.T) {
	_, ts := newTestServer(t)
	c := signedInClient(t, ts)
	ctx := context.Background()

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing title", body: map[string]any{"status": "available"}},
		{name: "blank title", body: map[string]any{"title": "   "}},
		{name: "unknown status", body: map[string]any{"title": "A", "status": "lost"}},
		{name: "negative price", body: map[string]any{"title": "A", "price_cents": -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Artworks().Create(ctx, tt.body)
			require.Error(t, err)
			assert.True(t, client.IsStatus(err, http.StatusBadRequest))
		})
	}
}

func TestArtworks_Patch(t *testing.T) {
	_, ts := newTestServer(t)
	c := signedInClient(t, ts)
	ctx := context.Background()

	artwork := createArtwork(t, c, "Seated Figure")

	updated, err := c.Artworks().Update(ctx, artwork.ID, map[string]any{
		"status":        "sold",
		"painting_year": 2024,
		"paper":         true,
	}, true)
	require.NoError(t, err)
	assert.Equal(t, models.ArtworkSold, updated.Status)
	assert.NotNil(t, updated.SoldAt)
	require.NotNil(t, updated.PaintingYear)
	assert.Equal(t, 2024, *updated.PaintingYear)
	require.NotNil(t, updated.Paper)
	assert.True(t, *updated.Paper)
	assert.Equal(t, "Seated Figure", updated.Title)

	updated, err = c.Artworks().Update(ctx, artwork.ID, map[string]any{
		"status":        "available",
		"painting_year": nil,
	}, true)
	require.NoError(t, err)
	assert.Nil(t, updated.SoldAt)
	assert.Nil(t, updated.PaintingYear)
}

func TestArtworks_PatchRejectsInvalid(t *testing.T) {
	_, ts := newTestServer(t)
	c := signedInClient(t, ts)
	ctx := context.Background()

	artwork := createArtwork(t, c, "Study")

	for _, body := range []map[string]any{
		{},
		{"owner": "me"},
		{"medium": "watercolor"},
		{"painting_number": 1.5},
		{"title": ""},
	} {
		_, err := c.Artworks().Update(ctx, artwork.ID, body, true)
		require.Error(t, err, body)
		assert.True(t, client.IsStatus(err, http.StatusBadRequest), body)
	}

	// PUT replaces, so the title has to be there
	_, err := c.Artworks().Update(ctx, artwork.ID, map[string]any{"status": "sold"}, false)
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusBadRequest))
}

func TestArtworks_Delete(t *testing.T) {
	_, ts := newTestServer(t)
	c := signedInClient(t, ts)
	ctx := context.Background()

	artwork := createArtwork(t, c, "Gone")
	require.NoError(t, c.Artworks().Delete(ctx, artwork.ID))

	_, err := c.Artworks().Get(ctx, artwork.ID, nil)
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))

	err = c.Artworks().Delete(ctx, artwork.ID)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
}

func TestImages_UploadAndMainImage(t *testing.T) {
	srv, ts := newTestServer(t)
	c := signedInClient(t, ts)
	ctx := context.Background()

	artwork := createArtwork(t, c, "With Images")

	first, err := c.UploadImage(ctx, artwork.ID, "front.png", bytes.NewReader(pngBytes(t, 40, 30)), false)
	require.NoError(t, err)
	assert.Equal(t, artwork.ID, first.ArtworkID)
	assert.True(t, first.IsMainImage, "first image becomes the main image")
	require.NotNil(t, first.ImageWidth)
	assert.Equal(t, 40, *first.ImageWidth)
	assert.Equal(t, 30, *first.ImageHeight)

	// the stored file is served from the upload route
	_, err = os.Stat(filepath.Join(srv.config.UploadDir, path.Base(first.ImageURL)))
	require.NoError(t, err)
	resp, err := http.Get(ts.URL + first.ImageURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	second, err := c.UploadImage(ctx, artwork.ID, "back.png", bytes.NewReader(pngBytes(t, 10, 10)), true)
	require.NoError(t, err)
	assert.True(t, second.IsMainImage)

	images, err := c.Images(artwork.ID).List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, images, 2)
	mains := 0
	for _, img := range images {
		if img.IsMainImage {
			mains++
			assert.Equal(t, second.ID, img.ID)
		}
	}
	assert.Equal(t, 1, mains)

	got, err := c.Images(artwork.ID).Get(ctx, first.ID, nil)
	require.NoError(t, err)
	assert.False(t, got.IsMainImage, "cleared by the second upload")

	toggled, err := c.TogglePrimaryImage(ctx, got)
	require.NoError(t, err)
	assert.True(t, toggled.IsMainImage)

	got, err = c.Images(artwork.ID).Get(ctx, second.ID, nil)
	require.NoError(t, err)
	assert.False(t, got.IsMainImage)

	toggled, err = c.TogglePrimaryImage(ctx, toggled)
	require.NoError(t, err)
	assert.False(t, toggled.IsMainImage)

	require.NoError(t, c.Images(artwork.ID).Delete(ctx, first.ID))
	_, err = os.Stat(filepath.Join(srv.config.UploadDir, path.Base(first.ImageURL)))
	assert.True(t, os.IsNotExist(err))
}

func TestImages_UploadRejectsNonImages(t *testing.T) {
	_, ts := newTestServer(t)
	c := signedInClient(t, ts)
	ctx := context.Background()

	artwork := createArtwork(t, c, "Plain")

	_, err := c.UploadImage(ctx, artwork.ID, "notes.txt", bytes.NewReader([]byte("not an image")), false)
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusBadRequest))

	_, err = c.UploadImage(ctx, "missing", "a.png", bytes.NewReader(pngBytes(t, 2, 2)), false)
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
}

func TestImages_ScopedToArtwork(t *testing.T) {
	_, ts := newTestServer(t)
	c := signedInClient(t, ts)
	ctx := context.Background()

	a := createArtwork(t, c, "A")
	b := createArtwork(t, c, "B")

	img, err := c.UploadImage(ctx, a.ID, "a.png", bytes.NewReader(pngBytes(t, 2, 2)), false)
	require.NoError(t, err)

	_, err = c.Images(b.ID).Get(ctx, img.ID, nil)
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
}

func TestOrders_ActiveShipDeliver(t *testing.T) {
	_, ts := newTestServer(t, withSeed)
	c := signedInClient(t, ts)
	ctx := context.Background()

	active, err := c.ActiveOrders(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	order := active[0]
	assert.Equal(t, models.OrderProcessing, order.Status)
	assert.NotEmpty(t, order.Payments)

	shipped, err := c.ShipOrder(ctx, order.ID, "https://tracking.example.com/abc")
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, shipped.Status)
	assert.Equal(t, "https://tracking.example.com/abc", shipped.TrackingLink)

	delivered, err := c.DeliverOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, delivered.Status)
	assert.Equal(t, "https://tracking.example.com/abc", delivered.TrackingLink, "tracking link is kept")

	active, err = c.ActiveOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestOrders_Validation(t *testing.T) {
	_, ts := newTestServer(t, withSeed)
	c := signedInClient(t, ts)
	ctx := context.Background()

	_, err := c.Orders().List(ctx, map[string][]string{"status": {"lost"}})
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusBadRequest))

	orders, err := c.Orders().List(ctx, nil)
	require.NoError(t, err)
	require.NotEmpty(t, orders)
	id := orders[0].ID

	_, err = c.Orders().Update(ctx, id, map[string]any{"status": "lost"}, true)
	assert.True(t, client.IsStatus(err, http.StatusBadRequest))

	_, err = c.ShipOrder(ctx, id, "not a url")
	assert.True(t, client.IsStatus(err, http.StatusBadRequest))

	_, err = c.Orders().Get(ctx, "missing", nil)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
}

func TestOrders_CancelReleasesArtworks(t *testing.T) {
	srv, ts := newTestServer(t, withSeed)
	c := signedInClient(t, ts)
	ctx := context.Background()

	active, err := c.ActiveOrders(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	id := active[0].ID

	_, err = c.Orders().Update(ctx, id, map[string]any{"status": "canceled"}, true)
	require.NoError(t, err)

	var artworks []models.Artwork
	require.NoError(t, srv.GetDB().Where("order_id = ?", id).Find(&artworks).Error)
	assert.Empty(t, artworks)

	_, err = c.ShipOrder(ctx, id, "")
	assert.True(t, client.IsStatus(err, http.StatusConflict))
}
