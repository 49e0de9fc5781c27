package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims は内部管理APIのアクセストークンのクレーム（ペイロード）。
// 公開の閲覧APIは認証不要であり、JWTは取り込み・再読み込みなどの
// 内部操作エンドポイントの保護にのみ使用する。
type JWTClaims struct {
	jwt.RegisteredClaims
	// Operator はトークンを発行された運用担当者の識別子。
	Operator string `json:"operator"`
}

// GenerateJWT は運用担当者向けのJWTトークンを生成する。
// 有効期限は24時間。
func GenerateJWT(secret, operator string) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "pulpit",
		},
		Operator: operator,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// JWTAuth はJWTトークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに "operator" を設定する。
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		c.Set("operator", claims.Operator)
		c.Next()
	}
}

// GetOperator はGinコンテキストから運用担当者の識別子を取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetOperator(c *gin.Context) string {
	operator, _ := c.Get("operator")
	if op, ok := operator.(string); ok {
		return op
	}
	return ""
}
