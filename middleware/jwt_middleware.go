// middleware/jwt_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/skillstream/lms_backend/models"
)

// Session validity windows. Registration and login issue the standard window;
// a completed phone verification issues the longer post-verification window.
const (
	SessionTokenTTL          = 7 * 24 * time.Hour
	PostVerificationTokenTTL = 30 * 24 * time.Hour
)

// TokenCookieName is the cookie carrying the session token.
const TokenCookieName = "token"

// JwtCustomClaims for JWT tokens. Role, Name and Verified are only populated
// on post-verification tokens.
type JwtCustomClaims struct {
	UserID   string `json:"id"`
	Role     string `json:"role,omitempty"`
	Name     string `json:"name,omitempty"`
	Verified bool   `json:"verified,omitempty"`
	jwt.StandardClaims
}

// Valid implements the Claims interface for Echo's JWT middleware.
func (c JwtCustomClaims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return errors.New("token is expired")
	}
	if c.NotBefore > 0 && time.Now().Unix() < c.NotBefore {
		return errors.New("token used before valid")
	}
	return nil
}

// TokenIssuer mints signed session tokens from a process-wide secret.
type TokenIssuer struct {
	Secret string
}

// SessionToken issues a standard 7-day token carrying only the account id.
func (t *TokenIssuer) SessionToken(user *models.User) (string, error) {
	claims := &JwtCustomClaims{
		UserID: user.ID.Hex(),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(SessionTokenTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	return t.sign(claims)
}

// PostVerificationToken issues the 30-day token minted after a successful
// phone verification, carrying role, name and the verified flag.
func (t *TokenIssuer) PostVerificationToken(user *models.User) (string, error) {
	claims := &JwtCustomClaims{
		UserID:   user.ID.Hex(),
		Role:     user.Role,
		Name:     user.Name,
		Verified: user.IsVerified,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(PostVerificationTokenTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	return t.sign(claims)
}

func (t *TokenIssuer) sign(claims *JwtCustomClaims) (string, error) {
	if t.Secret == "" {
		return "", errors.New("JWT secret is not configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.Secret))
}

// ParseToken validates a signed token and returns its claims.
func ParseToken(tokenString, secret string) (*JwtCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// JWTMiddleware authenticates requests from the Authorization header or the
// session cookie and stores the claims in the request context.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return echoMiddleware.JWTWithConfig(echoMiddleware.JWTConfig{
		SigningKey:  []byte(secret),
		Claims:      &JwtCustomClaims{},
		TokenLookup: "header:Authorization:Bearer ,cookie:" + TokenCookieName,
		SuccessHandler: func(c echo.Context) {
			user := c.Get("user").(*jwt.Token)
			claims := user.Claims.(*JwtCustomClaims)
			c.Set("userId", claims.UserID)
			c.Set("role", claims.Role)
		},
		ErrorHandler: func(err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		},
	})
}

// GetUserFromToken extracts claims from the authenticated request context.
func GetUserFromToken(c echo.Context) *JwtCustomClaims {
	user := c.Get("user")
	if user == nil {
		return nil
	}
	token, ok := user.(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetUserIDFromToken returns the authenticated account id, or "".
func GetUserIDFromToken(c echo.Context) string {
	if userID, ok := c.Get("userId").(string); ok && userID != "" {
		return userID
	}
	if claims := GetUserFromToken(c); claims != nil {
		return claims.UserID
	}
	return ""
}
