package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 身份服务签发的凭证载荷。核心只消费 UserID。
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Verifier 校验身份服务签发的 HS256 凭证。
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify 解析并校验 Bearer 凭证，返回其中的用户标识。
// 未签名、签名算法不符、过期、user_id 缺失都视为无效凭证。
func (v *Verifier) Verify(bearer string) (int64, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(bearer, "Bearer "))
	if raw == "" {
		return 0, fmt.Errorf("empty credential")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return 0, fmt.Errorf("invalid credential: %w", err)
	}
	if claims.UserID <= 0 {
		return 0, fmt.Errorf("credential missing user_id")
	}
	return claims.UserID, nil
}

// Sign 按同样的口径签发凭证。服务端只用于测试与本地联调，
// 生产签发在身份服务侧。
func (v *Verifier) Sign(userID int64, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
