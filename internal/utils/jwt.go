package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// PlayerClaims 玩家身份令牌，Subject 即玩家ID
type PlayerClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// PlayerID 令牌对应的玩家ID
func (c *PlayerClaims) PlayerID() string {
	return c.Subject
}

// Identity 新签发的身份
type Identity struct {
	PlayerID  string    `json:"playerId"`
	Name      string    `json:"name,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// JWTManager JWT管理器
type JWTManager struct {
	secretKey string
	issuer    string
	expiry    time.Duration
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(secretKey, issuer string, expiry time.Duration) *JWTManager {
	if expiry <= 0 {
		expiry = 72 * time.Hour
	}
	return &JWTManager{
		secretKey: secretKey,
		issuer:    issuer,
		expiry:    expiry,
	}
}

// NewIdentity 生成随机玩家ID并签发令牌
func (j *JWTManager) NewIdentity(name string) (*Identity, error) {
	playerID := uuid.New().String()
	token, expiresAt, err := j.GenerateToken(playerID, name)
	if err != nil {
		return nil, err
	}
	return &Identity{
		PlayerID:  playerID,
		Name:      name,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// GenerateToken 为指定玩家签发令牌
func (j *JWTManager) GenerateToken(playerID, name string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.expiry)

	claims := &PlayerClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.issuer,
			Subject:   playerID,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken 验证令牌
func (j *JWTManager) ValidateToken(tokenString string) (*PlayerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PlayerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(j.secretKey), nil
	}, jwt.WithIssuer(j.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, err
	}

	claims, ok := token.Claims.(*PlayerClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Expiry 令牌有效期
func (j *JWTManager) Expiry() time.Duration {
	return j.expiry
}
