package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yumiazusa/contract-sys/internal/model/entity"
	"github.com/yumiazusa/contract-sys/internal/repository"
	"github.com/yumiazusa/contract-sys/internal/service"
)

// ContractHandler 合同处理器
type ContractHandler struct {
	svc *service.ContractService
}

// NewContractHandler 创建合同处理器
func NewContractHandler(svc *service.ContractService) *ContractHandler {
	return &ContractHandler{svc: svc}
}

// contractJSON 列表接口的合同视图。日期输出YYYY-MM-DD，金额输出小数字符串。
type contractJSON struct {
	ID                   uint   `json:"id"`
	ContractNo           string `json:"contract_no"`
	ContractName         string `json:"contract_name"`
	ProjectNo            string `json:"project_no"`
	ContractType         string `json:"contract_type"`
	Platform             string `json:"platform"`
	ContractAmount       string `json:"contract_amount"`
	SignDate             string `json:"sign_date"`
	CompanyName          string `json:"company_name"`
	ContactPhone         string `json:"contact_phone"`
	CorporatePrincipal   string `json:"corporate_principal"`
	Department           string `json:"department"`
	PaymentTerms         string `json:"payment_terms"`
	OriginalContractNo   string `json:"original_contract_no"`
	OriginalContractName string `json:"original_contract_name"`
	Remarks              string `json:"remarks"`
	ExecutivePartner     string `json:"executive_partner"`
	Filler               string `json:"filler"`
	Status               string `json:"status"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
}

func toContractJSON(c *entity.Contract) contractJSON {
	out := contractJSON{
		ID:                   c.ID,
		ContractNo:           c.ContractNo,
		ContractName:         c.ContractName,
		ProjectNo:            c.ProjectNo,
		ContractType:         c.ContractType,
		Platform:             c.Platform,
		CompanyName:          c.CompanyName,
		ContactPhone:         c.ContactPhone,
		CorporatePrincipal:   c.CorporatePrincipal,
		Department:           c.Department,
		PaymentTerms:         c.PaymentTerms,
		OriginalContractNo:   c.OriginalContractNo,
		OriginalContractName: c.OriginalContractName,
		Remarks:              c.Remarks,
		ExecutivePartner:     c.ExecutivePartner,
		Filler:               c.Filler,
		Status:               c.Status,
		CreatedAt:            c.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:            c.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
	if c.ContractAmount != nil {
		out.ContractAmount = strconv.FormatFloat(*c.ContractAmount, 'f', 2, 64)
	}
	if c.SignDate != nil {
		out.SignDate = c.SignDate.Format("2006-01-02")
	}
	return out
}

func contractID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Fail(c, http.StatusBadRequest, "无效的合同ID")
		return 0, false
	}
	return uint(id), true
}

// List GET /api/contracts
func (h *ContractHandler) List(c *gin.Context) {
	filter := repository.ContractFilter{
		ExecutivePartner: c.Query("executive_partner"),
		Filler:           c.Query("filler"),
	}

	contracts, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	out := make([]contractJSON, len(contracts))
	for i := range contracts {
		out[i] = toContractJSON(&contracts[i])
	}
	c.JSON(http.StatusOK, out)
}

// FilterOptions GET /api/contracts/filter_options
func (h *ContractHandler) FilterOptions(c *gin.Context) {
	options, err := h.svc.GetFilterOptions(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

// Create POST /api/contracts
func (h *ContractHandler) Create(c *gin.Context) {
	var req service.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, BindingMessage(err))
		return
	}

	contract, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"contract_no": contract.ContractNo,
		"id":          contract.ID,
	})
}

// Update PUT /api/contracts/:id
func (h *ContractHandler) Update(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	var req service.UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, BindingMessage(err))
		return
	}

	if _, err := h.svc.Update(c.Request.Context(), id, &req); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Void POST /api/contracts/:id/void
func (h *ContractHandler) Void(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	if err := h.svc.Void(c.Request.Context(), id); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CheckDelete GET /api/contracts/:id/check_delete
func (h *ContractHandler) CheckDelete(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	canDelete, err := h.svc.CheckDelete(c.Request.Context(), id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	if !canDelete {
		c.JSON(http.StatusOK, gin.H{
			"can_delete": false,
			"message":    "该合同编号后续已有项目创建，不可删除。如需停用，请使用“作废”功能。",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"can_delete": true})
}

// Delete DELETE /api/contracts/:id
func (h *ContractHandler) Delete(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
