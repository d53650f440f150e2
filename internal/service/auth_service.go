package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yumiazusa/contract-sys/internal/config"
	"github.com/yumiazusa/contract-sys/internal/model/entity"
	"github.com/yumiazusa/contract-sys/internal/repository"
	"github.com/yumiazusa/contract-sys/internal/session"
	"golang.org/x/crypto/bcrypt"
)

// 默认管理员账号，首次启动时创建
const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
	defaultAdminRealname = "系统管理员"
	defaultAdminDept     = "管理部"
)

// AuthService 认证服务
type AuthService struct {
	userRepo *repository.UserRepository
	sessions session.Store
	cfg      *config.Config
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo *repository.UserRepository, sessions session.Store, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		cfg:      cfg,
	}
}

// verifyPassword 校验密码。bcrypt哈希优先，明文行做遗留兼容。
func verifyPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// Login 登录。成功后创建服务端会话并签发携带会话ID的Cookie令牌。
func (s *AuthService) Login(ctx context.Context, username, password string) (*session.Session, string, error) {
	if username == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if !verifyPassword(user.Password, password) {
		return nil, "", ErrInvalidCredentials
	}

	sess := &session.Session{
		ID:       uuid.New().String(),
		Username: user.Username,
		Realname: user.Realname,
	}
	if err := s.sessions.Save(ctx, sess, s.cfg.Session.TTL); err != nil {
		return nil, "", fmt.Errorf("save session: %w", err)
	}

	token, err := s.signSessionToken(sess)
	if err != nil {
		return nil, "", fmt.Errorf("sign session token: %w", err)
	}
	return sess, token, nil
}

// Logout 注销会话
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// SessionIDFromToken 从Cookie令牌中解析会话ID
func (s *AuthService) SessionIDFromToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Session.Secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", errors.New("missing session id claim")
	}
	return sid, nil
}

func (s *AuthService) signSessionToken(sess *session.Session) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sid":      sess.ID,
		"username": sess.Username,
		"realname": sess.Realname,
		"iss":      "contract-sys",
		"iat":      now.Unix(),
		"exp":      now.Add(s.cfg.Session.TTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Session.Secret))
}

// EnsureDefaultAdmin 幂等的启动初始化：admin账号不存在时创建
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context) error {
	_, err := s.userRepo.FindByUsername(ctx, defaultAdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("find admin user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &entity.User{
		Username:   defaultAdminUsername,
		Password:   string(hash),
		Realname:   defaultAdminRealname,
		Department: defaultAdminDept,
		CreatedAt:  time.Now(),
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	return nil
}
