package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"createdAt":             "created_at",
		"created_at":            "created_at",
		"qrCode":                "qr_code",
		"stripeSessionID":       "stripe_session_id",
		"stripePaymentIntentId": "stripe_payment_intent_id",
		"imageURL":              "image_url",
		"imageURLPath":          "image_url_path",
		"line1":                 "line1",
		"Line2":                 "line2",
		"isMainImage":           "is_main_image",
	}

	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}

func TestNormalize_Nested(t *testing.T) {
	out, err := Normalize([]byte(`{"shippingDetail":{"postalCode":"1"},"payments":[{"paidAt":null}]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"shipping_detail":{"postal_code":"1"},"payments":[{"paid_at":null}]}`, string(out))
}

func TestNormalize_SnakeCaseWins(t *testing.T) {
	out, err := Normalize([]byte(`{"createdAt":"camel","created_at":"snake"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"created_at":"snake"}`, string(out))
}

func TestNormalize_PreservesNumbers(t *testing.T) {
	out, err := Normalize([]byte(`{"priceCents":12345678901234}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"price_cents":12345678901234}`, string(out))
}

func TestNormalize_Empty(t *testing.T) {
	out, err := Normalize(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNormalize_Invalid(t *testing.T) {
	_, err := Normalize([]byte(`{`))
	require.Error(t, err)
}
