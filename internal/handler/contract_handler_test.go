package handler

import (
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yumiazusa/contract-sys/internal/model/entity"
	"github.com/yumiazusa/contract-sys/internal/repository"
	"github.com/yumiazusa/contract-sys/internal/service"
	"github.com/yumiazusa/contract-sys/internal/session"
	"github.com/yumiazusa/contract-sys/internal/testutil"
	"gorm.io/gorm"
)

type apiEnv struct {
	db     *gorm.DB
	router *gin.Engine
	cookie string
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	sessions := session.NewMemoryStore()
	cfg := testutil.TestConfig()
	services := service.NewServices(repository.NewRepositories(db), sessions, cfg)
	handlers := NewHandlers(services, cfg)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, sessions, "/api")
	contracts := api.Group("/contracts")
	contracts.GET("", handlers.Contract.List)
	contracts.GET("/filter_options", handlers.Contract.FilterOptions)
	contracts.POST("", handlers.Contract.Create)
	contracts.PUT("/:id", handlers.Contract.Update)
	contracts.POST("/:id/void", handlers.Contract.Void)
	contracts.GET("/:id/check_delete", handlers.Contract.CheckDelete)
	contracts.DELETE("/:id", handlers.Contract.Delete)
	api.GET("/export/excel", handlers.Export.ExportExcel)

	return &apiEnv{
		db:     db,
		router: r,
		cookie: testutil.NewSessionCookie(t, sessions, "admin", "系统管理员"),
	}
}

func validContractBody() map[string]interface{} {
	return map[string]interface{}{
		"contract_name":       "咨询服务合同",
		"contract_type":       entity.ContractTypeFramework,
		"platform":            entity.PlatformJinQian,
		"company_name":        "某某咨询有限公司",
		"contact_phone":       "13800000000",
		"corporate_principal": "李四",
		"department":          "咨询部",
	}
}

func TestAPIRequiresSession(t *testing.T) {
	env := setupAPI(t)

	w := testutil.DoRequest(env.router, "GET", "/api/contracts", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without session, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["success"] != false || resp["message"] != "请先登录" {
		t.Errorf("Unexpected body %v", resp)
	}

	// 伪造签名的Cookie同样拒绝
	w = testutil.DoRequest(env.router, "GET", "/api/contracts", nil, "not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with bad token, got %d", w.Code)
	}
}

func TestCreateContractEndpoint(t *testing.T) {
	env := setupAPI(t)

	w := testutil.DoRequest(env.router, "POST", "/api/contracts", validContractBody(), env.cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["success"] != true {
		t.Errorf("Expected success, got %v", resp)
	}
	if resp["contract_no"] != "KJ2026JQ0001" {
		t.Errorf("Expected KJ2026JQ0001, got %v", resp["contract_no"])
	}
	if _, ok := resp["id"].(float64); !ok {
		t.Errorf("Expected numeric id, got %v", resp["id"])
	}
}

func TestCreateContractMissingField(t *testing.T) {
	env := setupAPI(t)

	body := validContractBody()
	delete(body, "contact_phone")
	w := testutil.DoRequest(env.router, "POST", "/api/contracts", body, env.cookie)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	msg, _ := resp["message"].(string)
	if !strings.Contains(msg, "contact_phone") {
		t.Errorf("Error message should name the missing field, got %q", msg)
	}
}

func TestCreateContractUnknownPlatform(t *testing.T) {
	env := setupAPI(t)

	body := validContractBody()
	body["platform"] = "别的平台"
	w := testutil.DoRequest(env.router, "POST", "/api/contracts", body, env.cookie)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["success"] != false {
		t.Errorf("Expected failure body, got %v", resp)
	}
}

func TestCreateContractAcceptsStringAmount(t *testing.T) {
	env := setupAPI(t)

	body := validContractBody()
	body["contract_amount"] = "99999.99"
	body["sign_date"] = "2026-05-20"
	w := testutil.DoRequest(env.router, "POST", "/api/contracts", body, env.cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, "GET", "/api/contracts", nil, env.cookie)
	items := testutil.ParseListResponse(w)
	if len(items) != 1 {
		t.Fatalf("Expected 1 contract, got %d", len(items))
	}
	if items[0]["contract_amount"] != "99999.99" {
		t.Errorf("Expected amount 99999.99, got %v", items[0]["contract_amount"])
	}
	if items[0]["sign_date"] != "2026-05-20" {
		t.Errorf("Expected sign_date 2026-05-20, got %v", items[0]["sign_date"])
	}
}

func TestListContractsOrderAndFilter(t *testing.T) {
	env := setupAPI(t)

	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	testutil.SeedContract(t, env.db, "HT2026JC0001", entity.ContractTypeStandard, entity.PlatformJinChen, func(c *entity.Contract) {
		c.CreatedAt = base
		c.ExecutivePartner = "孙合伙人"
	})
	testutil.SeedContract(t, env.db, "HT2026JC0002", entity.ContractTypeStandard, entity.PlatformJinChen, func(c *entity.Contract) {
		c.CreatedAt = base.Add(time.Hour)
	})

	w := testutil.DoRequest(env.router, "GET", "/api/contracts", nil, env.cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	items := testutil.ParseListResponse(w)
	if len(items) != 2 {
		t.Fatalf("Expected 2 contracts, got %d", len(items))
	}
	if items[0]["contract_no"] != "HT2026JC0002" {
		t.Errorf("Expected newest first, got %v", items[0]["contract_no"])
	}

	w = testutil.DoRequest(env.router, "GET", "/api/contracts?executive_partner=孙合伙人", nil, env.cookie)
	items = testutil.ParseListResponse(w)
	if len(items) != 1 || items[0]["contract_no"] != "HT2026JC0001" {
		t.Errorf("Expected filtered single row, got %v", items)
	}
}

func TestUpdateContractEndpoint(t *testing.T) {
	env := setupAPI(t)

	seeded := testutil.SeedContract(t, env.db, "KJ2026JQ0001", entity.ContractTypeFramework, entity.PlatformJinQian, nil)

	body := map[string]interface{}{
		"contract_name":       "更新后的合同",
		"company_name":        "新单位",
		"contact_phone":       "13911112222",
		"corporate_principal": "周负责人",
		"department":          "财务部",
	}
	path := "/api/contracts/" + strconv.FormatUint(uint64(seeded.ID), 10)
	w := testutil.DoRequest(env.router, "PUT", path, body, env.cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got entity.Contract
	if err := env.db.First(&got, seeded.ID).Error; err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got.ContractName != "更新后的合同" || got.CompanyName != "新单位" {
		t.Errorf("Update not persisted: %+v", got)
	}
}

func TestUpdateMissingContractReturns404(t *testing.T) {
	env := setupAPI(t)

	body := map[string]interface{}{
		"contract_name":       "x",
		"company_name":        "x",
		"contact_phone":       "x",
		"corporate_principal": "x",
		"department":          "x",
	}
	w := testutil.DoRequest(env.router, "PUT", "/api/contracts/424242", body, env.cookie)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["message"] != "合同不存在" {
		t.Errorf("Unexpected message %v", resp["message"])
	}
}

func TestUpdateInvalidIDReturns400(t *testing.T) {
	env := setupAPI(t)

	w := testutil.DoRequest(env.router, "PUT", "/api/contracts/abc", map[string]interface{}{}, env.cookie)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
}

func TestVoidThenUpdateRejected(t *testing.T) {
	env := setupAPI(t)

	seeded := testutil.SeedContract(t, env.db, "KJ2026JQ0001", entity.ContractTypeFramework, entity.PlatformJinQian, nil)
	path := "/api/contracts/" + strconv.FormatUint(uint64(seeded.ID), 10)

	w := testutil.DoRequest(env.router, "POST", path+"/void", nil, env.cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Void failed: %d %s", w.Code, w.Body.String())
	}

	body := map[string]interface{}{
		"contract_name":       "不应生效",
		"company_name":        "x",
		"contact_phone":       "x",
		"corporate_principal": "x",
		"department":          "x",
	}
	w = testutil.DoRequest(env.router, "PUT", path, body, env.cookie)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 updating voided contract, got %d", w.Code)
	}

	var got entity.Contract
	env.db.First(&got, seeded.ID)
	if got.ContractName == "不应生效" {
		t.Error("Voided contract was modified")
	}
	if got.Status != entity.ContractStatusInvalid {
		t.Errorf("Expected invalid status, got %s", got.Status)
	}
}

func TestCheckDeleteAndDeleteFlow(t *testing.T) {
	env := setupAPI(t)

	a := testutil.SeedContract(t, env.db, "KJ2026JQ0001", entity.ContractTypeFramework, entity.PlatformJinQian, nil)
	b := testutil.SeedContract(t, env.db, "KJ2026JQ0002", entity.ContractTypeFramework, entity.PlatformJinQian, nil)

	pathA := "/api/contracts/" + strconv.FormatUint(uint64(a.ID), 10)
	pathB := "/api/contracts/" + strconv.FormatUint(uint64(b.ID), 10)

	w := testutil.DoRequest(env.router, "GET", pathA+"/check_delete", nil, env.cookie)
	resp := testutil.ParseResponse(w)
	if resp["can_delete"] != false {
		t.Errorf("Expected can_delete=false for earlier contract, got %v", resp)
	}
	if msg, _ := resp["message"].(string); msg == "" {
		t.Error("Expected explanatory message for blocked deletion")
	}

	w = testutil.DoRequest(env.router, "GET", pathB+"/check_delete", nil, env.cookie)
	resp = testutil.ParseResponse(w)
	if resp["can_delete"] != true {
		t.Errorf("Expected can_delete=true for latest contract, got %v", resp)
	}

	// 删除早期合同被拒绝
	w = testutil.DoRequest(env.router, "DELETE", pathA, nil, env.cookie)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 deleting blocked contract, got %d", w.Code)
	}

	// 先删最新的，再删早期的
	w = testutil.DoRequest(env.router, "DELETE", pathB, nil, env.cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Delete B failed: %d", w.Code)
	}
	w = testutil.DoRequest(env.router, "DELETE", pathA, nil, env.cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Delete A failed: %d", w.Code)
	}

	w = testutil.DoRequest(env.router, "GET", "/api/contracts", nil, env.cookie)
	if items := testutil.ParseListResponse(w); len(items) != 0 {
		t.Errorf("Expected empty ledger, got %d rows", len(items))
	}
}

func TestFilterOptionsEndpoint(t *testing.T) {
	env := setupAPI(t)

	testutil.SeedContract(t, env.db, "HT2026JQ0001", entity.ContractTypeStandard, entity.PlatformJinQian, func(c *entity.Contract) {
		c.ExecutivePartner = "吴合伙人"
		c.Filler = "郑填表"
	})

	w := testutil.DoRequest(env.router, "GET", "/api/contracts/filter_options", nil, env.cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	partners, _ := resp["executive_partners"].([]interface{})
	fillers, _ := resp["fillers"].([]interface{})
	if len(partners) != 1 || partners[0] != "吴合伙人" {
		t.Errorf("Unexpected partners %v", partners)
	}
	if len(fillers) != 1 || fillers[0] != "郑填表" {
		t.Errorf("Unexpected fillers %v", fillers)
	}
}
