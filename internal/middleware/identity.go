package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"actiongate/internal/config"
	apperrors "actiongate/internal/errors"
	"actiongate/internal/models"
)

// Gin context keys set by RequireIdentity.
const (
	TenantIDKey = "tenantID"
	ActorKey    = "actor"
)

const serviceTokenExpiry = time.Hour

func getJWTKey() []byte {
	return []byte(config.Get().JWTSecret)
}

// IdentityClaims are the claims of a service-to-service token. They carry
// the same identity a caller would otherwise send in headers.
type IdentityClaims struct {
	TenantID  uint   `json:"tenant_id"`
	ActorType string `json:"actor_type"`
	ActorID   uint   `json:"actor_id"`
	jwt.RegisteredClaims
}

// GenerateServiceToken mints a signed token carrying a tenant and actor
// identity.
func GenerateServiceToken(tenantID uint, actor models.Actor) (string, error) {
	claims := &IdentityClaims{
		TenantID:  tenantID,
		ActorType: string(actor.Type),
		ActorID:   actor.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(serviceTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "actiongate-api",
			Subject:   fmt.Sprintf("%d", actor.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTKey())
}

// RequireIdentity returns a Gin middleware that resolves the tenant and
// acting identity for the request. Identity comes from a Bearer token or
// from the X-Tenant-ID, X-Actor-Type and X-Actor-ID headers. The tenant is
// mandatory; without actor headers the request is attributed to the system
// actor.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims, err := parseServiceToken(tokenString)
			if err != nil {
				c.AbortWithStatusJSON(apperrors.ErrUnauthorized.StatusCode, gin.H{
					"error": gin.H{
						"code":    apperrors.ErrUnauthorized.Code,
						"message": "invalid token",
					},
				})
				return
			}
			c.Set(TenantIDKey, claims.TenantID)
			c.Set(ActorKey, models.Actor{Type: models.ActorType(claims.ActorType), ID: claims.ActorID})
			c.Next()
			return
		}

		tenantHeader := c.GetHeader("X-Tenant-ID")
		if tenantHeader == "" {
			c.AbortWithStatusJSON(apperrors.ErrUnauthorized.StatusCode, gin.H{
				"error": gin.H{
					"code":    apperrors.ErrUnauthorized.Code,
					"message": "X-Tenant-ID header is required",
				},
			})
			return
		}
		tenantID, err := strconv.ParseUint(tenantHeader, 10, 32)
		if err != nil || tenantID == 0 {
			c.AbortWithStatusJSON(apperrors.ErrValidation.StatusCode, gin.H{
				"error": gin.H{
					"code":    apperrors.ErrValidation.Code,
					"message": "X-Tenant-ID must be a positive integer",
				},
			})
			return
		}

		c.Set(TenantIDKey, uint(tenantID))
		c.Set(ActorKey, actorFromHeaders(c))
		c.Next()
	}
}

// actorFromHeaders reads the acting identity headers, falling back to the
// system actor.
func actorFromHeaders(c *gin.Context) models.Actor {
	actorType := c.GetHeader("X-Actor-Type")
	actorIDHeader := c.GetHeader("X-Actor-ID")
	if actorType == "" || actorIDHeader == "" {
		return models.SystemActor
	}

	switch models.ActorType(actorType) {
	case models.ActorTypeHuman, models.ActorTypeAgent, models.ActorTypeSystem:
	default:
		return models.SystemActor
	}

	actorID, err := strconv.ParseUint(actorIDHeader, 10, 32)
	if err != nil {
		return models.SystemActor
	}

	return models.Actor{Type: models.ActorType(actorType), ID: uint(actorID)}
}

func parseServiceToken(tokenString string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTKey(), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.TenantID == 0 {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
