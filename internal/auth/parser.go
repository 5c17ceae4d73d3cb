// Package auth validates operator access tokens issued by the shop's login
// service.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nurpe/repairdesk/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrDisabled     = errors.New("token auth disabled")
)

type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

// NewParser returns a parser; an empty secret disables token checks.
func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(strings.TrimSpace(secret))}
}

func (p *Parser) Enabled() bool {
	return len(p.secret) > 0
}

func (p *Parser) Parse(raw string) (model.Operator, error) {
	if !p.Enabled() {
		return model.Operator{}, ErrDisabled
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Operator{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return model.Operator{}, ErrInvalidToken
	}
	name := claims.Name
	if name == "" {
		name = claims.Subject
	}
	return model.Operator{Subject: claims.Subject, Name: name}, nil
}
