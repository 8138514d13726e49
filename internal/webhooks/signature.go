package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignHMAC returns the lowercase hex HMAC-SHA256 of body. It is the value
// carried in the X-Signature header when a subscription has a secret.
func SignHMAC(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC reports whether provided is a valid signature for body.
// Receivers can use this to validate incoming deliveries.
func VerifyHMAC(secret string, body []byte, provided string) bool {
	want, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}
