package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cafe-next/internal/config"
	"github.com/cafe-next/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader   = "X-Request-ID"
	userIDContextKey  = "user_id"
	adminIDContextKey = "admin_id"
	maxRequestIDLen   = 64
)

var defaultCORSHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Accept-Encoding",
	"Authorization",
	"Cache-Control",
	"X-Requested-With",
	requestIDHeader,
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = defaultCORSHeaders
	}
	staticHeaders := map[string]string{
		"Access-Control-Allow-Methods":  strings.Join(methods, ", "),
		"Access-Control-Allow-Headers":  strings.Join(headers, ", "),
		"Access-Control-Expose-Headers": requestIDHeader,
	}
	if cfg.MaxAge > 0 {
		staticHeaders["Access-Control-Max-Age"] = strconv.Itoa(cfg.MaxAge)
	}
	if cfg.AllowCredentials {
		staticHeaders["Access-Control-Allow-Credentials"] = "true"
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()
		if allowed := resolveAllowedOrigin(c.GetHeader("Origin"), allowedOrigins, cfg.AllowCredentials); allowed != "" {
			header.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				header.Add("Vary", "Origin")
			}
		}
		for key, value := range staticHeaders {
			header.Set(key, value)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// resolveAllowedOrigin 通配符在携带凭证时回显请求来源
func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	wildcard := false
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			wildcard = true
			continue
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	if !wildcard {
		return ""
	}
	if allowCredentials && origin != "" {
		return origin
	}
	return "*"
}

// RequestIDMiddleware 请求 ID 中间件，沿用客户端传入的 X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}
		c.Set(response.RequestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件，健康检查不记录
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(response.RequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if uid, ok := getContextUint(c, userIDContextKey); ok {
			fields = append(fields, zap.Uint("user_id", uid))
		}
		if aid, ok := getContextUint(c, adminIDContextKey); ok {
			fields = append(fields, zap.Uint("admin_id", aid))
		}
		if len(c.Errors) > 0 {
			logger.Error("http_request", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		logger.Info("http_request", fields...)
	}
}

// UserClaims 用户令牌声明（由外部身份服务签发）
type UserClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// AdminClaims 管理员令牌声明（由外部身份服务签发）
type AdminClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserJWTAuthMiddleware 用户 JWT 鉴权中间件
func UserJWTAuthMiddleware(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &UserClaims{}
		if !parseBearerToken(c, cfg, claims) {
			return
		}
		if claims.UserID == 0 {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		c.Set(userIDContextKey, claims.UserID)
		c.Next()
	}
}

// AdminJWTAuthMiddleware 管理端 JWT 鉴权中间件
func AdminJWTAuthMiddleware(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &AdminClaims{}
		if !parseBearerToken(c, cfg, claims) {
			return
		}
		if claims.AdminID == 0 {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		c.Set(adminIDContextKey, claims.AdminID)
		c.Set("username", claims.Username)
		c.Next()
	}
}

// parseBearerToken 解析 Authorization 头，失败时已写入响应并中止
func parseBearerToken(c *gin.Context, cfg config.JWTConfig, claims jwt.Claims) bool {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		response.Unauthorized(c, "jwt secret is not configured")
		c.Abort()
		return false
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.Unauthorized(c, "authorization header is required")
		c.Abort()
		return false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		response.Unauthorized(c, "authorization header must be a bearer token")
		c.Abort()
		return false
	}

	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer := strings.TrimSpace(cfg.Issuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.SecretKey), nil
	})
	if err != nil || !token.Valid {
		response.Unauthorized(c, "invalid token")
		c.Abort()
		return false
	}
	return true
}

func getContextUint(c *gin.Context, key string) (uint, bool) {
	if c == nil {
		return 0, false
	}
	raw, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch value := raw.(type) {
	case uint:
		return value, value > 0
	case int:
		if value > 0 {
			return uint(value), true
		}
	case float64:
		if value > 0 {
			return uint(value), true
		}
	}
	return 0, false
}
