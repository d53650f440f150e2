package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yumiazusa/contract-sys/internal/config"
	"github.com/yumiazusa/contract-sys/internal/service"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	svc *service.AuthService
	cfg *config.Config
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg}
}

// Index GET / 登录页
func (h *AuthHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// Login POST /login 表单登录
func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	_, token, err := h.svc.Login(c.Request.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.HTML(http.StatusOK, "login.html", gin.H{"Error": "用户名或密码错误"})
			return
		}
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"Error": "系统繁忙，请稍后再试"})
		return
	}

	c.SetCookie(h.cfg.Session.CookieName, token, int(h.cfg.Session.TTL.Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, "/dashboard")
}

// Logout GET /logout 注销
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cfg.Session.CookieName); err == nil && token != "" {
		if sid, err := h.svc.SessionIDFromToken(token); err == nil {
			_ = h.svc.Logout(c.Request.Context(), sid)
		}
	}
	c.SetCookie(h.cfg.Session.CookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// Dashboard GET /dashboard 主页面，需要会话
func (h *AuthHandler) Dashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Username": c.GetString("username"),
		"Realname": c.GetString("realname"),
	})
}
