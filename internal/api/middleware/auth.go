package middleware

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apierrors "voicescribe/internal/api/errors"
	"voicescribe/internal/app/lifecycle"
	"voicescribe/internal/app/model"
)

const principalKey = "principal"

// Principal is the authenticated caller
type Principal struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the caller holds the admin role
func (p *Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// Requester converts the principal for lifecycle authorization checks
func (p *Principal) Requester() lifecycle.Requester {
	return lifecycle.Requester{UserID: p.UserID, Admin: p.IsAdmin()}
}

// Claims are the JWT claims issued to users. The subject is the numeric user ID.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Authenticator issues and validates HS256 user tokens
type Authenticator struct {
	secret []byte
	issuer string
	logger *slog.Logger
}

// NewAuthenticator creates an authenticator signing with secret
func NewAuthenticator(secret string, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		issuer: "voicescribe",
		logger: logger.With("component", "jwt_auth"),
	}
}

// GenerateToken issues a token for a user valid for ttl
func (a *Authenticator) GenerateToken(userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	})
	return token.SignedString(a.secret)
}

// Parse validates a token and returns its principal
func (a *Authenticator) Parse(tokenString string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(a.issuer),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return &Principal{UserID: userID, Role: claims.Role}, nil
}

// Middleware requires a valid bearer token. EventSource clients cannot set
// headers, so an access_token query parameter is accepted as well.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("access_token")
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				HandleError(c, apierrors.NewUnauthorizedError("expected Authorization: Bearer <token>"))
				return
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			HandleError(c, apierrors.NewUnauthorizedError("missing bearer token"))
			return
		}

		principal, err := a.Parse(tokenString)
		if err != nil {
			a.logger.Debug("JWT validation failed", "error", err, "client_ip", c.ClientIP())
			HandleError(c, apierrors.NewUnauthorizedError("invalid or expired token"))
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role. It must run after
// Middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil || !p.IsAdmin() {
			HandleError(c, apierrors.NewForbiddenError("admin role required"))
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the authenticated caller, or nil
func CurrentPrincipal(c *gin.Context) *Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}

// WithPrincipal stores p on the context. Tests use it to skip token handling.
func WithPrincipal(p *Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(principalKey, p)
		c.Next()
	}
}
