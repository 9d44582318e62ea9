package auth

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"time"

	"nitpickr-api/config"
	"nitpickr-api/internal/domain/users"
	"nitpickr-api/internal/infra/email"
	"nitpickr-api/internal/logger"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionTTL      = 24 * time.Hour
	verificationTTL = 24 * time.Hour
	resetTTL        = time.Hour
)

var log = logger.New("auth")

// Mailer delivers verification and reset emails. Nil disables sending.
var Mailer email.Sender

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func isEmailValid(email string) bool {
	return emailPattern.MatchString(email)
}

func generateToken() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)
}

// IssueToken signs the session JWT used by the auth middleware.
func IssueToken(user users.User) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(sessionTTL).Unix(),
	})
	return t.SignedString([]byte(config.JWT_SECRET))
}

func sendVerification(to, token string) error {
	if Mailer == nil {
		log.Warn("No mailer configured, verification email skipped", "to", to)
		return nil
	}
	return Mailer.SendVerification(to, token)
}

func sendPasswordReset(to, token string) error {
	if Mailer == nil {
		log.Warn("No mailer configured, reset email skipped", "to", to)
		return nil
	}
	return Mailer.SendPasswordReset(to, token)
}
