// Package auth issues and verifies the room tokens that let a user rejoin
// a room without re-entering its code.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"huddle/internal/shared/biztime"
)

// Claims binds a durable identity to a room membership. A token is minted on
// a successful room join and presented back on reconnect.
type Claims struct {
	UserSID     string `json:"user_sid"`
	RoomSID     string `json:"room_sid"`
	RoomCode    string `json:"room_code"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret   []byte
	expHours int
}

func NewJWTService(secret string, expHours int) *JWTService {
	return &JWTService{
		secret:   []byte(secret),
		expHours: expHours,
	}
}

// Generate mints a room token for the given membership.
func (s *JWTService) Generate(userSID, roomSID, roomCode, displayName string) (string, error) {
	now := biztime.NowUTC()
	exp := now.Add(time.Duration(s.expHours) * time.Hour)

	claims := &Claims{
		UserSID:     userSID,
		RoomSID:     roomSID,
		RoomCode:    roomCode,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign room token: %w", err)
	}
	return signed, nil
}

// Verify parses a room token and returns its claims.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
