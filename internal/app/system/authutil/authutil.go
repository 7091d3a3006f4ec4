// Package authutil holds password hashing and the random secrets handed to users:
// temporary passwords for new accounts and payment confirmation codes.
package authutil

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password hashes.
const BcryptCost = 12

// MinPasswordLength is the minimum accepted password length, in runes.
const MinPasswordLength = 8

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordCommon   = errors.New("password is too common")
)

var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"azerty123":   {},
	"qwerty123":   {},
	"iloveyou":    {},
	"motdepasse":  {},
}

// ValidatePassword enforces the minimum password policy for user-chosen passwords.
func ValidatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if _, common := commonPasswords[strings.ToLower(pw)]; common {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword returns a bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(hash, pw string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Alphabets without look-alike characters (0/O, 1/I/l).
const (
	passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// TempPasswordLength is the length of generated temporary passwords.
const TempPasswordLength = 12

// ConfirmationCodeLength is the length of payment confirmation codes.
const ConfirmationCodeLength = 6

// GenerateTempPassword returns a random temporary password for a new account.
func GenerateTempPassword() (string, error) {
	return randomString(passwordAlphabet, TempPasswordLength)
}

// GenerateConfirmationCode returns a random single-use payment confirmation code.
func GenerateConfirmationCode() (string, error) {
	return randomString(codeAlphabet, ConfirmationCodeLength)
}

func randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
