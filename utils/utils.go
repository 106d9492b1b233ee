package utils

import (
	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

func HashPIN(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), BcryptCost)
	return string(bytes), err
}

func CheckPINHash(pin, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	return err == nil
}

// IsValidPIN accepts exactly four ASCII digits.
func IsValidPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
