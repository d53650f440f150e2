package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yumiazusa/contract-sys/internal/config"
	"github.com/yumiazusa/contract-sys/internal/middleware"
	"github.com/yumiazusa/contract-sys/internal/model/entity"
	"github.com/yumiazusa/contract-sys/internal/session"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// SessionSecret 测试用Cookie令牌密钥
	SessionSecret = "contract-sys-test-secret"
	// CookieName 测试用会话Cookie名
	CookieName = "contract_session"
)

var dbCounter int64

// TestEnv holds test environment resources
type TestEnv struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Sessions session.Store
	T        *testing.T
}

// TestConfig returns a config suitable for handler/service tests
func TestConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{
			CookieName: CookieName,
			Secret:     SessionSecret,
			TTL:        time.Hour,
		},
	}
}

// SetupTestDB opens an isolated in-memory sqlite database and migrates the
// schema. Each call gets its own database; the handle is closed via t.Cleanup.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&entity.User{}, &entity.Contract{}); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group guarded by the session middleware
func AuthGroup(r *gin.Engine, sessions session.Store, path string) *gin.RouterGroup {
	return r.Group(path, middleware.SessionAuth(sessions, SessionSecret, CookieName))
}

// NewSessionCookie creates a server-side session plus a signed cookie token
// for it, the same shape the login flow produces.
func NewSessionCookie(t *testing.T, sessions session.Store, username, realname string) string {
	t.Helper()

	sess := &session.Session{
		ID:       uuid.New().String(),
		Username: username,
		Realname: realname,
	}
	if err := sessions.Save(context.Background(), sess, time.Hour); err != nil {
		t.Fatalf("Failed to save test session: %v", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sid":      sess.ID,
		"username": sess.Username,
		"realname": sess.Realname,
		"iss":      "contract-sys",
		"iat":      now.Unix(),
		"exp":      now.Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(SessionSecret))
	if err != nil {
		t.Fatalf("Failed to sign test session token: %v", err)
	}
	return tokenString
}

// DoRequest executes an HTTP request against the test router. A non-empty
// cookie value is sent as the session cookie.
func DoRequest(r *gin.Engine, method, path string, body interface{}, cookie string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// ParseListResponse parses a JSON array response body
func ParseListResponse(w *httptest.ResponseRecorder) []map[string]interface{} {
	var result []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedContract inserts a contract row with sensible defaults, overridden by mutate
func SeedContract(t *testing.T, db *gorm.DB, contractNo, contractType, platform string, mutate func(*entity.Contract)) *entity.Contract {
	t.Helper()

	now := time.Now()
	contract := &entity.Contract{
		ContractNo:         contractNo,
		ContractName:       "测试合同 " + contractNo,
		ContractType:       contractType,
		Platform:           platform,
		CompanyName:        "测试单位",
		ContactPhone:       "13800000000",
		CorporatePrincipal: "张三",
		Department:         "综合部",
		Status:             entity.ContractStatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if mutate != nil {
		mutate(contract)
	}
	if err := db.Create(contract).Error; err != nil {
		t.Fatalf("Failed to seed contract: %v", err)
	}
	return contract
}
