package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/art-vbst/art-admin/internal/models"
)

func TestUploadImage_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/images", r.URL.Path)
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "a1", r.FormValue("artwork_id"))
		assert.Equal(t, "true", r.FormValue("is_main_image"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "painting.png", header.Filename)
		assert.Equal(t, "png-bytes", string(data))

		writeJSON(w, http.StatusCreated, map[string]any{"id": "i1", "artwork_id": "a1", "is_main_image": true})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	img, err := c.UploadImage(context.Background(), "a1", "painting.png", strings.NewReader("png-bytes"), true)
	require.NoError(t, err)
	assert.True(t, img.IsMainImage)
}

func TestUploadImage_MissingFile(t *testing.T) {
	c, err := New("http://localhost:1")
	require.NoError(t, err)

	_, err = c.UploadImage(context.Background(), "a1", "", nil, false)
	assert.ErrorIs(t, err, ErrMissingFile)
}

func TestTogglePrimaryImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/artworks/a1/images/i1", r.URL.Path)
		require.Equal(t, http.MethodPatch, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "false", body["is_main_image"])

		writeJSON(w, http.StatusOK, map[string]any{"id": "i1", "artwork_id": "a1", "is_main_image": false})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	img, err := c.TogglePrimaryImage(context.Background(), &models.Image{
		BaseModel:   models.BaseModel{ID: "i1"},
		ArtworkID:   "a1",
		IsMainImage: true,
	})
	require.NoError(t, err)
	assert.False(t, img.IsMainImage)
}

func TestActiveOrders_FiltersAndSortsOldestFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "processing", r.URL.Query().Get("status"))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "new", "created_at": "2024-03-02T00:00:00Z"},
			{"id": "old", "created_at": "2024-01-02T00:00:00Z"},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	orders, err := c.ActiveOrders(context.Background())
	require.NoError(t, err)

	require.Len(t, orders, 2)
	assert.Equal(t, "old", orders[0].ID)
	assert.Equal(t, "new", orders[1].ID)
}

func TestShipAndDeliverOrder(t *testing.T) {
	var bodies []OrderStatusUpdate
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/o1", r.URL.Path)
		require.Equal(t, http.MethodPatch, r.Method)

		var body OrderStatusUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		writeJSON(w, http.StatusOK, map[string]any{"id": "o1", "status": body.Status, "tracking_link": body.TrackingLink})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	shipped, err := c.ShipOrder(context.Background(), "o1", "https://track.example.com/1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, shipped.Status)
	assert.Equal(t, "https://track.example.com/1", shipped.TrackingLink)

	delivered, err := c.DeliverOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, delivered.Status)

	require.Len(t, bodies, 2)
	assert.Empty(t, bodies[1].TrackingLink)
}

func TestEndpoint_UpdatePutAndDelete(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		assert.Equal(t, "/artworks/a1", r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "a1", "title": "Renamed"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	artwork, err := c.Artworks().Update(context.Background(), "a1", map[string]string{"title": "Renamed"}, false)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", artwork.Title)

	require.NoError(t, c.Artworks().Delete(context.Background(), "a1"))
	assert.Equal(t, []string{http.MethodPut, http.MethodDelete}, methods)
}
