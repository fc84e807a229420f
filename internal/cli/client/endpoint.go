package client

import (
	"context"
	"net/http"
	"net/url"
	"path"
)

// Endpoint is a conventional REST resource rooted at a path
type Endpoint[T any] struct {
	client *Client
	path   string
}

// NewEndpoint creates a resource endpoint on the client
func NewEndpoint[T any](c *Client, resourcePath string) *Endpoint[T] {
	return &Endpoint[T]{client: c, path: resourcePath}
}

// Path returns the resource's collection path
func (e *Endpoint[T]) Path() string {
	return e.path
}

func (e *Endpoint[T]) itemPath(id string) string {
	return path.Join(e.path, id)
}

// Create posts data to the collection
func (e *Endpoint[T]) Create(ctx context.Context, data any) (*T, error) {
	resp, err := e.client.Do(ctx, &Request{Method: http.MethodPost, Path: e.path, Body: data})
	if err != nil {
		return nil, err
	}
	return JSON[T](resp)
}

// Get fetches a single item
func (e *Endpoint[T]) Get(ctx context.Context, id string, params url.Values) (*T, error) {
	resp, err := e.client.Do(ctx, &Request{Method: http.MethodGet, Path: e.itemPath(id), Query: params})
	if err != nil {
		return nil, err
	}
	return JSON[T](resp)
}

// List fetches the collection
func (e *Endpoint[T]) List(ctx context.Context, params url.Values) ([]T, error) {
	resp, err := e.client.Do(ctx, &Request{Method: http.MethodGet, Path: e.path, Query: params})
	if err != nil {
		return nil, err
	}

	var items []T
	if err := resp.Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

// Update modifies an item with PATCH, or PUT when patch is false
func (e *Endpoint[T]) Update(ctx context.Context, id string, data any, patch bool) (*T, error) {
	method := http.MethodPatch
	if !patch {
		method = http.MethodPut
	}

	resp, err := e.client.Do(ctx, &Request{Method: method, Path: e.itemPath(id), Body: data})
	if err != nil {
		return nil, err
	}
	return JSON[T](resp)
}

// Delete removes an item
func (e *Endpoint[T]) Delete(ctx context.Context, id string) error {
	_, err := e.client.Do(ctx, &Request{Method: http.MethodDelete, Path: e.itemPath(id)})
	return err
}
