package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kindacts/kindcli/internal/models"
)

var (
	// ErrTokenInvalid covers malformed tokens and tokens missing the fields
	// a session needs.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the token payload the backend issues:
// {userId, username, email, role, exp}.
type Claims struct {
	UserID   string      `json:"userId"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// DecodeToken parses the token payload without verifying the signature.
// The client holds no signing secret; the backend is the one that has to
// trust the token, the client only reads its own identity out of it.
func DecodeToken(token string) (*Claims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.UserID == "" || !claims.Role.Known() {
		return nil, fmt.Errorf("%w: missing identity fields", ErrTokenInvalid)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrTokenInvalid)
	}
	return &claims, nil
}

// User converts the claims into the identity they describe.
func (c *Claims) User() models.User {
	return models.User{
		ID:       c.UserID,
		Username: c.Username,
		Email:    c.Email,
		Role:     c.Role,
	}
}
