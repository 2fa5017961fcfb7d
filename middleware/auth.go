package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"occupancy-dashboard/config"
	"occupancy-dashboard/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const requesterContextKey = "requester"

// AuthMiddleware validates the bearer JWT and stores the requester
// identity in the Gin context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Printf("WARNING: Request without Authorization header from %s", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Printf("WARNING: Invalid Authorization header format from %s", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")

		requester, err := ValidateToken(token, cfg.JWTSecret)
		if err != nil {
			log.Printf("WARNING: Token validation failed from %s: %v", c.ClientIP(), err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(requesterContextKey, requester)
		c.Next()
	}
}

// RequireRole rejects requests whose requester does not hold one of the
// given roles. Used for the admin-only settings endpoints.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requester := GetRequesterFromContext(c)
		for _, role := range roles {
			if requester.Role == role {
				c.Next()
				return
			}
		}
		log.Printf("WARNING: Role %q denied for %s", requester.Role, c.FullPath())
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error: "insufficient role",
			Kind:  models.ErrKindScopeViolation,
		})
		c.Abort()
	}
}

// ValidateToken parses and verifies an HS256 access token and extracts the
// requester identity from its claims.
func ValidateToken(tokenString, secret string) (models.Requester, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return models.Requester{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Requester{}, errors.New("invalid token claims")
	}

	tokenType, _ := claims["type"].(string)
	if tokenType == "refresh" {
		return models.Requester{}, errors.New("cannot use refresh token for authentication")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return models.Requester{}, errors.New("invalid user id in token")
	}

	role, ok := claims["role"].(string)
	if !ok {
		return models.Requester{}, errors.New("missing role in token")
	}
	switch role {
	case models.RoleRegionAdmin, models.RoleProvinceAdmin, models.RoleMunicipalityAdmin, models.RoleEstablishment:
	default:
		return models.Requester{}, errors.New("unknown role in token")
	}

	requester := models.Requester{
		UserID: userID,
		Role:   role,
	}
	requester.Region, _ = claims["region"].(string)
	requester.Province, _ = claims["province"].(string)
	requester.Municipality, _ = claims["municipality"].(string)
	if estID, ok := claims["establishment_id"].(float64); ok {
		requester.EstablishmentID = int64(estID)
	}

	return requester, nil
}

// GenerateToken issues an HS256 access token for a requester. Used by
// operator tooling and tests; the dashboard itself never mints tokens.
func GenerateToken(requester models.Requester, secret string, expiresAt int64) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":          requester.UserID,
		"role":             requester.Role,
		"region":           requester.Region,
		"province":         requester.Province,
		"municipality":     requester.Municipality,
		"establishment_id": float64(requester.EstablishmentID),
		"type":             "access",
		"exp":              expiresAt,
	})
	return token.SignedString([]byte(secret))
}

// GetRequesterFromContext extracts the requester identity from Gin context.
func GetRequesterFromContext(c *gin.Context) models.Requester {
	if value, exists := c.Get(requesterContextKey); exists {
		if requester, ok := value.(models.Requester); ok {
			return requester
		}
	}
	return models.Requester{}
}
