package server

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/art-vbst/art-admin/internal/auth"
	"github.com/art-vbst/art-admin/internal/models"
)

// seedAdmin creates the configured staff account when it does not exist
func (s *Server) seedAdmin() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", s.config.AdminEmail).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	passwordHash, err := auth.HashPassword(s.config.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user := &models.User{
		Email:        s.config.AdminEmail,
		Name:         "Admin",
		PasswordHash: passwordHash,
	}
	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	s.logger.Info().Str("email", user.Email).Bool("totp", s.config.RequireTOTP).Msg("Admin user created")
	return nil
}

// seedSampleData fills an empty catalogue with a few artworks and orders
func (s *Server) seedSampleData() error {
	var count int64
	if err := s.db.Model(&models.Artwork{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count artworks: %w", err)
	}
	if count > 0 {
		return nil
	}

	year := func(y int) *int { return &y }
	now := time.Now().UTC()

	artworks := []models.Artwork{
		{Title: "Morning Harbor", PaintingYear: year(2021), WidthInches: 12, HeightInches: 9, PriceCents: 85000,
			Status: models.ArtworkAvailable, Medium: models.MediumOilPanel, Category: models.CategoryLandscape, SortOrder: 1},
		{Title: "Two Readers", PaintingYear: year(2022), WidthInches: 16, HeightInches: 20, PriceCents: 240000,
			Status: models.ArtworkSold, Medium: models.MediumOilMDF, Category: models.CategoryMultiFigure, SortOrder: 2},
		{Title: "Seated Figure", PaintingYear: year(2023), WidthInches: 8, HeightInches: 10, PriceCents: 60000,
			Status: models.ArtworkSold, Medium: models.MediumOilPaper, Category: models.CategoryFigure, SortOrder: 3},
		{Title: "Study in Blue", WidthInches: 6, HeightInches: 6,
			Status: models.ArtworkComingSoon, Medium: models.MediumAcrylicPanel, Category: models.CategoryOther, SortOrder: 4},
	}

	orders := []models.Order{
		{
			Status: models.OrderProcessing,
			ShippingDetail: models.ShippingDetail{
				Name: "Jordan Lee", Email: "jordan@example.com", Line1: "12 Elm St",
				City: "Portland", State: "OR", Postal: "97201", Country: "US",
			},
			PaymentRequirement: models.PaymentRequirement{SubtotalCents: 240000, ShippingCents: 4500, TotalCents: 244500, Currency: "usd"},
			Payments: []models.Payment{
				{StripePaymentIntentID: "pi_seed_1", Status: "success", TotalCents: 244500, Currency: "usd", PaidAt: &now},
			},
		},
		{
			Status:       models.OrderShipped,
			TrackingLink: "https://tracking.example.com/1Z999",
			ShippingDetail: models.ShippingDetail{
				Name: "Sam Rivera", Email: "sam@example.com", Line1: "400 Pine Ave", Line2: "Apt 3",
				City: "Austin", State: "TX", Postal: "78701", Country: "US",
			},
			PaymentRequirement: models.PaymentRequirement{SubtotalCents: 60000, ShippingCents: 2500, TotalCents: 62500, Currency: "usd"},
			Payments: []models.Payment{
				{StripePaymentIntentID: "pi_seed_2", Status: "success", TotalCents: 62500, Currency: "usd", PaidAt: &now},
			},
		},
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&orders).Error; err != nil {
			return fmt.Errorf("failed to seed orders: %w", err)
		}

		artworks[1].OrderID = &orders[0].ID
		artworks[1].SoldAt = &now
		artworks[2].OrderID = &orders[1].ID
		artworks[2].SoldAt = &now

		if err := tx.Create(&artworks).Error; err != nil {
			return fmt.Errorf("failed to seed artworks: %w", err)
		}

		s.logger.Info().Int("artworks", len(artworks)).Int("orders", len(orders)).Msg("Sample data seeded")
		return nil
	})
}
