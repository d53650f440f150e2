package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yumiazusa/contract-sys/internal/session"
	"go.uber.org/zap"
)

// Logger 日志中间件
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
			zap.String("request_id", c.GetString("request_id")),
		}

		if username := c.GetString("username"); username != "" {
			fields = append(fields, zap.String("username", username))
		}

		if status >= 500 {
			logger.Error("Server error", fields...)
		} else if status >= 400 {
			logger.Warn("Client error", fields...)
		} else {
			logger.Info("Request", fields...)
		}
	}
}

// CORS 跨域中间件
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestID 请求ID中间件
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Request.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// SessionClaims 会话Cookie令牌claims
type SessionClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	Realname  string `json:"realname"`
	jwt.RegisteredClaims
}

// resolveSession 从Cookie令牌解析并加载服务端会话
func resolveSession(c *gin.Context, sessions session.Store, secret, cookieName string) *session.Session {
	tokenString, err := c.Cookie(cookieName)
	if err != nil || tokenString == "" {
		return nil
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil
	}

	sess, err := sessions.Get(c.Request.Context(), claims.SessionID)
	if err != nil {
		return nil
	}
	return sess
}

// SessionAuth API会话认证中间件，无会话时返回401
func SessionAuth(sessions session.Store, secret, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := resolveSession(c, sessions, secret, cookieName)
		if sess == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "请先登录",
			})
			c.Abort()
			return
		}

		c.Set("session_id", sess.ID)
		c.Set("username", sess.Username)
		c.Set("realname", sess.Realname)
		c.Next()
	}
}

// SessionAuthPage 页面会话认证中间件，无会话时重定向到登录页
func SessionAuthPage(sessions session.Store, secret, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := resolveSession(c, sessions, secret, cookieName)
		if sess == nil {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		c.Set("session_id", sess.ID)
		c.Set("username", sess.Username)
		c.Set("realname", sess.Realname)
		c.Next()
	}
}
