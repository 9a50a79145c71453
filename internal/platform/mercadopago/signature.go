package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// webhookManifest is the signed part of a Mercado Pago notification.
// Alphanumeric data ids are signed lower-cased.
type webhookManifest struct {
	dataID    string
	requestID string
	ts        string
}

func (m webhookManifest) String() string {
	var b strings.Builder
	if m.dataID != "" {
		b.WriteString("id:" + strings.ToLower(m.dataID) + ";")
	}
	if m.requestID != "" {
		b.WriteString("request-id:" + m.requestID + ";")
	}
	if m.ts != "" {
		b.WriteString("ts:" + m.ts + ";")
	}
	return b.String()
}

func (m webhookManifest) sign(secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(m.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateSignature checks an x-signature header ("ts=<unix>,v1=<hex>")
// against the notification's data id and x-request-id.
func ValidateSignature(xSignature, xRequestID, dataID, secret string) bool {
	if xSignature == "" || secret == "" {
		return false
	}
	ts, v1 := parseSignatureHeader(xSignature)
	if ts == "" || v1 == "" {
		return false
	}
	expected := webhookManifest{dataID: dataID, requestID: xRequestID, ts: ts}.sign(secret)
	return hmac.Equal([]byte(strings.ToLower(v1)), []byte(expected))
}

// SignatureHeader builds the x-signature value Mercado Pago would send.
func SignatureHeader(dataID, xRequestID, ts, secret string) string {
	return "ts=" + ts + ",v1=" + webhookManifest{dataID: dataID, requestID: xRequestID, ts: ts}.sign(secret)
}

func parseSignatureHeader(header string) (ts, v1 string) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	return ts, v1
}
