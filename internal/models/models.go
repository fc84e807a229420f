package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides common fields and an auto-generated UUID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a UUID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// User is the staff identity returned by /auth/me, /auth/refresh and /auth/totp.
// Clients treat it as an immutable value and replace it wholesale.
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-" gorm:"not null"`
	TOTPSecret   string    `json:"-"`
	TOTPEnabled  bool      `json:"totp_enabled" gorm:"not null;default:false"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type ArtworkStatus string

const (
	ArtworkAvailable   ArtworkStatus = "available"
	ArtworkPending     ArtworkStatus = "pending"
	ArtworkSold        ArtworkStatus = "sold"
	ArtworkNotForSale  ArtworkStatus = "not_for_sale"
	ArtworkUnavailable ArtworkStatus = "unavailable"
	ArtworkComingSoon  ArtworkStatus = "coming_soon"
)

type ArtworkMedium string

const (
	MediumOilPanel     ArtworkMedium = "oil_panel"
	MediumAcrylicPanel ArtworkMedium = "acrylic_panel"
	MediumOilMDF       ArtworkMedium = "oil_mdf"
	MediumOilPaper     ArtworkMedium = "oil_paper"
	MediumUnknown      ArtworkMedium = "unknown"
)

type ArtworkCategory string

const (
	CategoryFigure      ArtworkCategory = "figure"
	CategoryLandscape   ArtworkCategory = "landscape"
	CategoryMultiFigure ArtworkCategory = "multi_figure"
	CategoryOther       ArtworkCategory = "other"
)

// ArtworkStatuses lists every status in display order
var ArtworkStatuses = []ArtworkStatus{
	ArtworkAvailable, ArtworkPending, ArtworkSold, ArtworkNotForSale, ArtworkUnavailable, ArtworkComingSoon,
}

// ArtworkMediums lists every medium in display order
var ArtworkMediums = []ArtworkMedium{
	MediumOilPanel, MediumAcrylicPanel, MediumOilMDF, MediumOilPaper, MediumUnknown,
}

// ArtworkCategories lists every category in display order
var ArtworkCategories = []ArtworkCategory{
	CategoryFigure, CategoryLandscape, CategoryMultiFigure, CategoryOther,
}

// Artwork is a catalogue entry with its images
type Artwork struct {
	BaseModel
	Title          string          `json:"title" gorm:"not null"`
	PaintingNumber *int            `json:"painting_number"`
	PaintingYear   *int            `json:"painting_year"`
	WidthInches    float64         `json:"width_inches"`
	HeightInches   float64         `json:"height_inches"`
	PriceCents     int64           `json:"price_cents"`
	Paper          *bool           `json:"paper"`
	SortOrder      int             `json:"sort_order"`
	SoldAt         *time.Time      `json:"sold_at"`
	Status         ArtworkStatus   `json:"status" gorm:"not null;default:available"`
	Medium         ArtworkMedium   `json:"medium" gorm:"not null;default:unknown"`
	Category       ArtworkCategory `json:"category" gorm:"not null;default:other"`
	OrderID        *string         `json:"order_id"`
	Images         []Image         `json:"images" gorm:"constraint:OnDelete:CASCADE"`
}

// Image belongs to an artwork; at most one image per artwork is the main image
type Image struct {
	BaseModel
	ArtworkID   string `json:"artwork_id" gorm:"not null;index"`
	ImageURL    string `json:"image_url"`
	IsMainImage bool   `json:"is_main_image" gorm:"not null;default:false"`
	ImageWidth  *int   `json:"image_width"`
	ImageHeight *int   `json:"image_height"`
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCanceled   OrderStatus = "canceled"
)

// ShippingDetail is the customer's shipping address
type ShippingDetail struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Postal  string `json:"postal"`
	Country string `json:"country"`
}

// PaymentRequirement holds the amounts owed for an order, in cents
type PaymentRequirement struct {
	SubtotalCents int64  `json:"subtotal_cents"`
	ShippingCents int64  `json:"shipping_cents"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
}

// Payment is a single payment attempt recorded against an order
type Payment struct {
	BaseModel
	OrderID               string     `json:"order_id" gorm:"not null;index"`
	StripePaymentIntentID string     `json:"stripe_payment_intent_id"`
	Status                string     `json:"status"` // success, failed, pending
	TotalCents            int64      `json:"total_cents"`
	Currency              string     `json:"currency"`
	PaidAt                *time.Time `json:"paid_at"`
}

// Order is a customer order
type Order struct {
	BaseModel
	Status             OrderStatus        `json:"status" gorm:"not null;default:pending;index"`
	StripeSessionID    string             `json:"stripe_session_id,omitempty"`
	TrackingLink       string             `json:"tracking_link,omitempty"`
	ShippingDetail     ShippingDetail     `json:"shipping_detail" gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentRequirement PaymentRequirement `json:"payment_requirement" gorm:"embedded;embeddedPrefix:payment_"`
	Payments           []Payment          `json:"payments" gorm:"constraint:OnDelete:CASCADE"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&User{}, &Artwork{}, &Image{}, &Order{}, &Payment{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindByIDWithPreload finds a record by ID with preloading
func FindByIDWithPreload[T any](db *gorm.DB, id string, model *T, preloads ...string) error {
	query := db
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	return query.Where("id = ?", id).First(model).Error
}
