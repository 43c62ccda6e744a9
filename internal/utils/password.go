package utils // package utils provides helper functions for credential hashing

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a salted bcrypt hash of plain using the given cost.
// The output embeds the algorithm parameters and salt, so two calls with the
// same input produce different strings.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain is the password that produced hash.
// bcrypt's comparison does not leak where a mismatch occurs; this is the only
// legal way to test credential equality.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
