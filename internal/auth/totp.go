package auth

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/art-vbst/art-admin/internal/assert"
)

// TOTPIssuer is shown by authenticator apps next to the account
const TOTPIssuer = "Art Admin"

const qrSize = 256

// Enrollment is freshly generated second-factor material
type Enrollment struct {
	Secret string
	// QRCode is a base64 PNG of the otpauth:// URL
	QRCode string
}

// NewEnrollment generates a TOTP secret for account and renders its QR code
func NewEnrollment(account string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      TOTPIssuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	assert.NotEmpty(key.Secret(), "TOTP secret")

	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	return &Enrollment{
		Secret: key.Secret(),
		QRCode: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// ValidateTOTP checks a one-time code against secret at the current time
func ValidateTOTP(code, secret string) bool {
	return totp.Validate(code, secret)
}

// GenerateTOTP returns the code for secret at t
func GenerateTOTP(secret string, t time.Time) (string, error) {
	return totp.GenerateCode(secret, t)
}
