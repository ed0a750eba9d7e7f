package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// SignUnlockToken builds the signed capability proving a visitor unlocked a
// gallery scope while the given password hash was the stored one. The token
// is an HMAC-SHA256 over "id|hash|scope", so changing the stored password
// silently revokes every token issued against the old hash.
func SignUnlockToken(secret string, galleryID int64, passwordHash, scope string) string {
	if passwordHash == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(galleryID, 10)))
	mac.Write([]byte{'|'})
	mac.Write([]byte(passwordHash))
	mac.Write([]byte{'|'})
	mac.Write([]byte(scope))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyUnlockToken recomputes the expected token and compares in constant time.
func VerifyUnlockToken(token, secret string, galleryID int64, passwordHash, scope string) bool {
	if token == "" || passwordHash == "" {
		return false
	}
	expected := SignUnlockToken(secret, galleryID, passwordHash, scope)
	return hmac.Equal([]byte(expected), []byte(token))
}
