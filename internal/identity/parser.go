// Package identity reads the signed-in customer from a bearer token. The
// result only prefills contact fields and is forwarded to the booking API.
package identity

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cast"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
)

type Parser struct {
	secret []byte
	now    func() time.Time
}

func NewParser(secret string, now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{secret: []byte(secret), now: now}
}

func (p *Parser) Enabled() bool { return len(p.secret) > 0 }

// FromRequest returns nil without error for anonymous requests.
func (p *Parser) FromRequest(r *http.Request) (*domain.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !p.Enabled() {
		return nil, nil
	}
	return p.Parse(header)
}

func (p *Parser) Parse(tokenString string) (*domain.Identity, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil || !token.Valid {
		return nil, apperrors.NewForbiddenError("invalid bearer token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.NewForbiddenError("unexpected token claims")
	}

	userID := cast.ToString(claims["sub"])
	if userID == "" {
		userID = cast.ToString(claims["user_id"])
	}
	if userID == "" {
		return nil, apperrors.NewForbiddenError("token has no subject")
	}

	return &domain.Identity{
		UserID: userID,
		Name:   cast.ToString(claims["name"]),
		Email:  cast.ToString(claims["email"]),
		Phone:  cast.ToString(claims["phone"]),
		Token:  tokenString,
	}, nil
}
