// Package listing filters and orders the resource lists shown by the list
// commands. The backend returns complete collections; search and sort
// happen client-side.
package listing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/art-vbst/art-admin/internal/models"
)

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// FieldCreatedAt is the one field whose first toggle sorts newest first
const FieldCreatedAt = "created_at"

// OrderField is a sortable order column
type OrderField string

const (
	OrderStatus    OrderField = "status"
	OrderCreatedAt OrderField = FieldCreatedAt
)

// ArtworkField is a sortable artwork column
type ArtworkField string

const (
	ArtworkTitle     ArtworkField = "title"
	ArtworkStatus    ArtworkField = "status"
	ArtworkCreatedAt ArtworkField = FieldCreatedAt
)

// Sort is the current sort field and direction. The zero value means
// unsorted.
type Sort[F ~string] struct {
	Field     F
	Direction Direction
}

// Active reports whether a field is selected
func (s Sort[F]) Active() bool {
	return s.Field != ""
}

// Toggle selects field. Selecting the current field flips the direction; a
// new field starts ascending, except created_at which starts descending.
func (s *Sort[F]) Toggle(field F) {
	if s.Active() && field == s.Field {
		if s.Direction == Asc {
			s.Direction = Desc
		} else {
			s.Direction = Asc
		}
		return
	}

	s.Field = field
	if string(field) == FieldCreatedAt {
		s.Direction = Desc
	} else {
		s.Direction = Asc
	}
}

// Clear resets to unsorted
func (s *Sort[F]) Clear() {
	var zero F
	s.Field = zero
	s.Direction = ""
}

// ParseSort builds a Sort from command flags. An empty field is unsorted; an
// empty direction takes the field's toggle default.
func ParseSort[F ~string](field, direction string, allowed ...F) (Sort[F], error) {
	var s Sort[F]
	if field == "" {
		return s, nil
	}

	var matched bool
	for _, f := range allowed {
		if string(f) == field {
			s.Toggle(f)
			matched = true
			break
		}
	}
	if !matched {
		return s, fmt.Errorf("invalid sort field %q (expected one of: %s)", field, joinFields(allowed))
	}

	switch Direction(strings.ToLower(direction)) {
	case "":
	case Asc:
		s.Direction = Asc
	case Desc:
		s.Direction = Desc
	default:
		return s, fmt.Errorf("invalid sort direction %q (expected asc or desc)", direction)
	}

	return s, nil
}

func joinFields[F ~string](fields []F) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func matches(value, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(term))
}

// FilterOrders keeps orders whose shipping email contains term
func FilterOrders(orders []models.Order, term string) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if matches(o.ShippingDetail.Email, term) {
			out = append(out, o)
		}
	}
	return out
}

// SortOrders returns a sorted copy of orders
func SortOrders(orders []models.Order, s Sort[OrderField]) []models.Order {
	out := append([]models.Order(nil), orders...)

	var compare func(a, b models.Order) int
	switch s.Field {
	case OrderStatus:
		compare = func(a, b models.Order) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case OrderCreatedAt:
		compare = func(a, b models.Order) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return ordered(compare(out[i], out[j]), s.Direction)
	})
	return out
}

// Orders filters then sorts
func Orders(orders []models.Order, term string, s Sort[OrderField]) []models.Order {
	return SortOrders(FilterOrders(orders, term), s)
}

// FilterArtworks keeps artworks whose title contains term
func FilterArtworks(artworks []models.Artwork, term string) []models.Artwork {
	out := make([]models.Artwork, 0, len(artworks))
	for _, a := range artworks {
		if matches(a.Title, term) {
			out = append(out, a)
		}
	}
	return out
}

// SortArtworks returns a sorted copy of artworks
func SortArtworks(artworks []models.Artwork, s Sort[ArtworkField]) []models.Artwork {
	out := append([]models.Artwork(nil), artworks...)

	var compare func(a, b models.Artwork) int
	switch s.Field {
	case ArtworkTitle:
		compare = func(a, b models.Artwork) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case ArtworkStatus:
		compare = func(a, b models.Artwork) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case ArtworkCreatedAt:
		compare = func(a, b models.Artwork) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return ordered(compare(out[i], out[j]), s.Direction)
	})
	return out
}

// Artworks filters then sorts
func Artworks(artworks []models.Artwork, term string, s Sort[ArtworkField]) []models.Artwork {
	return SortArtworks(FilterArtworks(artworks, term), s)
}

func ordered(cmp int, d Direction) bool {
	if d == Desc {
		return cmp > 0
	}
	return cmp < 0
}
