package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

// Claims 由账号服务签发，本服务只做校验
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func GenerateJWT(userID uint, role, secret string, expiration time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get(ClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// CheckActFor 未启用鉴权时放行；启用后非管理员只能操作自己的数据，否则返回 ErrForbidden
func CheckActFor(c *gin.Context, userID uint) error {
	claims := GetUserFromContext(c)
	if claims == nil {
		if _, authEnabled := c.Get(AuthEnabledKey); authEnabled {
			return fmt.Errorf("%w: no credentials for user %d", ErrForbidden, userID)
		}
		return nil
	}
	if claims.Role == RoleAdmin || claims.UserID == userID {
		return nil
	}
	return fmt.Errorf("%w: user %d cannot act for user %d", ErrForbidden, claims.UserID, userID)
}
