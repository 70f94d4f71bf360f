// Package token issues and verifies the signed identity claim carried by
// every authenticated request.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ripple/errs"
)

// DefaultTTL is the fixed validity window for issued claims.
const DefaultTTL = 5 * time.Hour

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs an HS256 claim for subject, expiring after the issuer TTL.
func (i *Issuer) Issue(subject primitive.ObjectID) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: subject.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify resolves a token back to its subject id. Expired and otherwise
// invalid tokens are distinct unauthorized outcomes.
func (i *Issuer) Verify(tokenString string) (primitive.ObjectID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return primitive.NilObjectID, errs.Unauthorized("Token has expired.")
		}
		return primitive.NilObjectID, errs.Unauthorized("Token validation failed.")
	}
	if !token.Valid {
		return primitive.NilObjectID, errs.Unauthorized("Token is not valid.")
	}

	subject, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, errs.Unauthorized("Token subject is not a valid user id.")
	}
	return subject, nil
}
