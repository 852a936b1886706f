package source

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"catalog-sync/core/value"
	"catalog-sync/feature/catalog/errs"
)

// WebhookRecord is the outcome of one accepted webhook call: exactly
// one raw product record, or a delete marker for a single sku.
type WebhookRecord struct {
	// Raw is the product payload when Delete is false.
	Raw value.Value
	// Delete marks the payload as a deletion request.
	Delete bool
	// SKU is the sku to delete when Delete is true.
	SKU string
}

// VerifySignature checks the payload's HMAC-SHA256 signature against
// the merchant's configured secret. The signature header may carry the
// digest base64- or hex-encoded. Comparison is constant-time.
//
// Verification happens before the payload is parsed; a forged payload
// is never interpreted.
func VerifySignature(body []byte, signature, secret string) error {
	if signature == "" || secret == "" {
		return errs.ErrSignatureInvalid
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	computed := mac.Sum(nil)

	if decoded, err := base64.StdEncoding.DecodeString(signature); err == nil {
		if hmac.Equal(decoded, computed) {
			return nil
		}
	}
	if decoded, err := hex.DecodeString(signature); err == nil {
		if hmac.Equal(decoded, computed) {
			return nil
		}
	}

	return errs.ErrSignatureInvalid
}

// Sign computes the base64 HMAC-SHA256 signature for a payload. Used by
// tests and by merchants integrating against the webhook endpoint.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ParseWebhook interprets a verified webhook body as a single raw
// record or a delete marker of the form {"deleted": true, "sku": "..."}.
func ParseWebhook(body []byte) (WebhookRecord, error) {
	record, err := value.FromJSON(body)
	if err != nil {
		return WebhookRecord{}, fmt.Errorf("malformed webhook payload: %w", err)
	}
	if record.Kind() != value.Map {
		return WebhookRecord{}, fmt.Errorf("webhook payload must be an object")
	}

	if deleted, ok := record.Lookup("deleted"); ok && deleted.AsBool() {
		sku, ok := record.Lookup("sku")
		if !ok || sku.AsString() == "" {
			return WebhookRecord{}, fmt.Errorf("delete marker missing sku")
		}
		return WebhookRecord{Delete: true, SKU: sku.AsString()}, nil
	}

	return WebhookRecord{Raw: record}, nil
}
