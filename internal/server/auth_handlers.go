package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/art-vbst/art-admin/internal/auth"
	"github.com/art-vbst/art-admin/internal/models"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TOTPRequest carries the one-time code completing a pending login
type TOTPRequest struct {
	TOTP string `json:"totp" validate:"required,totp"`
}

// TwoFactorResponse tells the client a second factor is outstanding. QRCode
// is only set on first enrollment.
type TwoFactorResponse struct {
	TOTPRequired bool   `json:"totp_required,omitempty"`
	QRCode       string `json:"qr_code,omitempty"`
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func secureRequest(c *gin.Context) bool {
	return c.Request.TLS != nil
}

// issueSession sets fresh access and refresh cookies and drops any pending
// second-factor state
func (s *Server) issueSession(c *gin.Context, user *models.User) error {
	access, err := s.tokens.GenerateToken(auth.KindAccess, user.ID, user.Email)
	if err != nil {
		return err
	}
	refresh, err := s.tokens.GenerateToken(auth.KindRefresh, user.ID, user.Email)
	if err != nil {
		return err
	}

	secure := secureRequest(c)
	auth.SetCookie(c.Writer, auth.AccessCookie, access, s.tokens.TTL(auth.KindAccess), secure)
	auth.SetCookie(c.Writer, auth.RefreshCookie, refresh, s.tokens.TTL(auth.KindRefresh), secure)
	auth.ClearCookie(c.Writer, auth.PendingCookie, secure)
	return nil
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Find user by email
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !s.config.RequireTOTP {
		if err := s.issueSession(c, &user); err != nil {
			s.logger.Error().Err(err).Msg("Failed to generate token")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")
		c.JSON(http.StatusOK, user)
		return
	}

	pending, err := s.tokens.GenerateToken(auth.KindPending, user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	auth.SetCookie(c.Writer, auth.PendingCookie, pending, s.tokens.TTL(auth.KindPending), secureRequest(c))

	if user.TOTPEnabled {
		s.logger.Info().Str("user_id", user.ID).Msg("Password accepted, awaiting code")
		c.JSON(http.StatusOK, TwoFactorResponse{TOTPRequired: true})
		return
	}

	// First login: enroll a new secret. It only becomes active once a code
	// generated from it has been verified.
	enrollment, err := auth.NewEnrollment(user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create TOTP enrollment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set up two-factor authentication"})
		return
	}
	if err := s.db.Model(&user).Update("totp_secret", enrollment.Secret).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to store TOTP secret")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set up two-factor authentication"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Password accepted, TOTP enrollment started")
	c.JSON(http.StatusOK, TwoFactorResponse{QRCode: enrollment.QRCode})
}

func (s *Server) verifyTOTP(c *gin.Context) {
	var req TOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code must be 6 digits"})
		return
	}

	user, err := loadUserFromCookie(c, s.db, s.tokens, auth.PendingCookie, auth.KindPending)
	if err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, err, "No login in progress")
		return
	}

	if user.TOTPSecret == "" || !auth.ValidateTOTP(req.TOTP, user.TOTPSecret) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid code"})
		return
	}

	if !user.TOTPEnabled {
		if err := s.db.Model(user).Update("totp_enabled", true).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to enable TOTP")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		s.logger.Info().Str("user_id", user.ID).Msg("TOTP enrollment completed")
	}

	if err := s.issueSession(c, user); err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")
	c.JSON(http.StatusOK, user)
}

// refresh rotates both session cookies from a valid refresh cookie
func (s *Server) refresh(c *gin.Context) {
	user, err := loadUserFromCookie(c, s.db, s.tokens, auth.RefreshCookie, auth.KindRefresh)
	if err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, err, "Session expired")
		return
	}

	if err := s.issueSession(c, user); err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) logout(c *gin.Context) {
	secure := secureRequest(c)
	for _, name := range []string{auth.AccessCookie, auth.RefreshCookie, auth.PendingCookie} {
		auth.ClearCookie(c.Writer, name, secure)
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, user)
}
