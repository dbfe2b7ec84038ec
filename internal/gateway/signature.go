package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// VerifyWebhookSignature checks the provider's HMAC-SHA512 signature over the
// raw, unparsed request body. Re-serializing the JSON first would break
// byte-for-byte equality, so callers must pass the body exactly as received.
func (c *Client) VerifyWebhookSignature(payload []byte, signatureHeader string) bool {
	return VerifySignature(payload, signatureHeader, c.cfg.SecretKey)
}

func VerifySignature(payload []byte, signatureHeader, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" || secret == "" {
		return false
	}

	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decoded)
}
