package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/marchelxyz/GeoCheck-sub000/pkg/jwt"
)

// EmployeeContextKey is the key used to store employee information in Gin context
const EmployeeContextKey = "employee"

// EmployeeContext represents the authenticated employee's information
type EmployeeContext struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	FullName   string    `json:"full_name"`
}

// AuthMiddleware creates a middleware that validates employee JWT tokens
func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Printf("AUTH FAILED: Missing authorization header - Path: %s, IP: %s", c.Request.URL.Path, c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization header is required",
				"code":    "MISSING_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid authorization header format. Expected: Bearer <token>",
				"code":    "INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Token cannot be empty",
				"code":    "INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			if jwtService.IsTokenExpired(tokenString) {
				log.Printf("AUTH FAILED: Token expired - Path: %s, IP: %s", c.Request.URL.Path, c.ClientIP())
				c.JSON(http.StatusUnauthorized, gin.H{
					"error":   "token_expired",
					"message": "Access token has expired",
					"code":    "TOKEN_EXPIRED",
				})
			} else {
				log.Printf("AUTH FAILED: Invalid token - Path: %s, IP: %s, Error: %v", c.Request.URL.Path, c.ClientIP(), err)
				c.JSON(http.StatusUnauthorized, gin.H{
					"error":   "invalid_token",
					"message": "Invalid access token",
					"code":    "INVALID_TOKEN",
				})
			}
			c.Abort()
			return
		}

		c.Set(EmployeeContextKey, EmployeeContext{
			EmployeeID: claims.EmployeeID,
			FullName:   claims.FullName,
		})

		c.Next()
	}
}

// AdminKeyMiddleware creates a middleware that checks the X-Admin-Key header
// against the configured bcrypt hash
func AdminKeyMiddleware(adminKeyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Admin-Key")
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Admin key is required",
				"code":    "MISSING_ADMIN_KEY",
			})
			c.Abort()
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(adminKeyHash), []byte(key)); err != nil {
			log.Printf("AUTH FAILED: Invalid admin key - Path: %s, IP: %s", c.Request.URL.Path, c.ClientIP())
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Invalid admin key",
				"code":    "INVALID_ADMIN_KEY",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetEmployeeContext retrieves the employee context from Gin context
func GetEmployeeContext(c *gin.Context) (EmployeeContext, bool) {
	value, exists := c.Get(EmployeeContextKey)
	if !exists {
		return EmployeeContext{}, false
	}

	empCtx, ok := value.(EmployeeContext)
	if !ok {
		return EmployeeContext{}, false
	}

	return empCtx, true
}

// MustGetEmployeeContext retrieves the employee context or panics (use only
// after AuthMiddleware)
func MustGetEmployeeContext(c *gin.Context) EmployeeContext {
	empCtx, exists := GetEmployeeContext(c)
	if !exists {
		panic("employee context not found - ensure AuthMiddleware is applied")
	}
	return empCtx
}
