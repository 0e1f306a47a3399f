package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	JWTSecret         string = "Amora"
	JWTExpirationTime        = time.Hour * 24
)

// UserClaims Token 中携带的业务信息。签发方是外部身份服务，
// 网关侧只做校验与解析。
type UserClaims struct {
	UserID uint64 `json:"user_id"`
	jwt.RegisteredClaims
}
