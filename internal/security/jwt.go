package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athebyme/travel-admin/pkg/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// JWTManager проверяет HS256-токены, выданные REST-бэкендом
type JWTManager struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// Claims токена бэкенда; роль передается одной строкой
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

func NewJWTManager(secret string, expiration time.Duration, issuer string) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	return &JWTManager{
		secret:     []byte(secret),
		expiration: expiration,
		issuer:     issuer,
	}, nil
}

// Generate выпускает токен для пользователя (используется в тестах и локальной разработке)
func (m *JWTManager) Generate(p models.Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   p.UserID,
		},
		UserID:   p.UserID,
		Username: p.Username,
		Email:    p.Email,
		Role:     string(p.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ValidateToken реализует interfaces.TokenValidator
func (m *JWTManager) ValidateToken(_ context.Context, tokenString string) (*models.Principal, error) {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}

	return &models.Principal{
		UserID:   userID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     models.Role(claims.Role),
	}, nil
}
