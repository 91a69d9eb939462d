// Package signature firma y verifica cuerpos de webhook con HMAC-SHA256 en hexadecimal.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign devuelve el HMAC-SHA256 de body con secret, en hexadecimal minúscula.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compara en tiempo constante la firma recibida con la calculada sobre los bytes
// exactos de body. Un secreto o firma vacíos nunca verifican.
func Verify(secret string, body []byte, received string) bool {
	received = strings.TrimSpace(received)
	if secret == "" || received == "" {
		return false
	}
	got, err := hex.DecodeString(received)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
