package security

import (
	"github.com/golang-jwt/jwt/v5"
)

const JWTSecret string = "Parley"

// UserClaims Token 中携带的业务信息
type UserClaims struct {
	UserID uint64 `json:"user_id"`
	jwt.RegisteredClaims
}
