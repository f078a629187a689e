package util

import (
	"fmt"
	"time"

	"workshop_form_backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// OverwriteClaims 把待确认的覆盖请求签进短期令牌，服务端不保存会话状态
type OverwriteClaims struct {
	Pending model.PendingOverwrite `json:"pending"`
	jwt.RegisteredClaims
}

func GenerateOverwriteToken(p model.PendingOverwrite, secret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := &OverwriteClaims{
		Pending: p,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseOverwriteToken(tokenString, secret string) (*model.PendingOverwrite, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OverwriteClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*OverwriteClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	p := claims.Pending
	if p.Row < 1 || p.Column < 2 {
		return nil, ErrInvalidToken
	}
	return &p, nil
}
