package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/art-vbst/art-admin/internal/auth"
	"github.com/art-vbst/art-admin/internal/models"
)

var (
	ErrMissingCookie = errors.New("missing session cookie")
	ErrInvalidToken  = errors.New("invalid token")
	ErrUserNotFound  = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// loadUserFromCookie validates the named cookie as a token of kind and loads
// its user
func loadUserFromCookie(c *gin.Context, db *gorm.DB, tokens *auth.Issuer, name string, kind auth.TokenKind) (*models.User, error) {
	value, err := c.Cookie(name)
	if err != nil || value == "" {
		return nil, ErrMissingCookie
	}

	claims, err := tokens.ValidateToken(value, kind)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	var user models.User
	if err := models.FindByID(db, claims.UserID, &user); err != nil {
		return nil, errors.Join(ErrUserNotFound, err)
	}
	return &user, nil
}

// CookieAuthMiddleware requires a valid access cookie
func CookieAuthMiddleware(db *gorm.DB, tokens *auth.Issuer, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := loadUserFromCookie(c, db, tokens, auth.AccessCookie, auth.KindAccess)
		if err != nil {
			var message string
			switch {
			case errors.Is(err, ErrMissingCookie):
				message = "Not authenticated"
			case errors.Is(err, ErrUserNotFound):
				message = "User not found"
			default:
				message = "Invalid or expired session"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		setSession(c, &auth.SessionData{
			UserID: user.ID,
			Email:  user.Email,
		})

		c.Next()
	}
}
