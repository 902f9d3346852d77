package util

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var legacyHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword 校验密码；旧库中的 sha256 十六进制摘要也能通过，needsRehash 提示调用方升级为 bcrypt
func CheckPassword(hashed, password string) (ok bool, needsRehash bool) {
	if IsLegacyHash(hashed) {
		sum := sha256.Sum256([]byte(password))
		digest := hex.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(digest), []byte(hashed)) == 1, true
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil, false
}

func IsLegacyHash(hashed string) bool {
	return legacyHashPattern.MatchString(hashed)
}
