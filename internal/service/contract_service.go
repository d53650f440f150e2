package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yumiazusa/contract-sys/internal/model/entity"
	"github.com/yumiazusa/contract-sys/internal/repository"
)

// contractNoYear 合同编号中的固定年份段
const contractNoYear = "2026"

// ContractService 合同服务
type ContractService struct {
	repo *repository.ContractRepository
}

// NewContractService 创建合同服务
func NewContractService(repo *repository.ContractRepository) *ContractService {
	return &ContractService{repo: repo}
}

// AmountValue 合同金额，JSON中允许数字或数字字符串，空串视为未填
type AmountValue struct {
	Valid bool
	Value float64
}

func (a *AmountValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", s)
	}
	a.Valid = true
	a.Value = v
	return nil
}

// Ptr 转为可空指针
func (a AmountValue) Ptr() *float64 {
	if !a.Valid {
		return nil
	}
	v := a.Value
	return &v
}

// CreateContractRequest 创建合同请求
type CreateContractRequest struct {
	ContractName         string      `json:"contract_name" binding:"required"`
	ProjectNo            string      `json:"project_no"`
	ContractType         string      `json:"contract_type" binding:"required"`
	Platform             string      `json:"platform" binding:"required"`
	ContractAmount       AmountValue `json:"contract_amount"`
	SignDate             string      `json:"sign_date"`
	CompanyName          string      `json:"company_name" binding:"required"`
	ContactPhone         string      `json:"contact_phone" binding:"required"`
	CorporatePrincipal   string      `json:"corporate_principal" binding:"required"`
	Department           string      `json:"department" binding:"required"`
	PaymentTerms         string      `json:"payment_terms"`
	OriginalContractNo   string      `json:"original_contract_no"`
	OriginalContractName string      `json:"original_contract_name"`
	Remarks              string      `json:"remarks"`
	ExecutivePartner     string      `json:"executive_partner"`
	Filler               string      `json:"filler"`
}

// UpdateContractRequest 更新合同请求。编号、类型、平台、状态创建后不可变。
type UpdateContractRequest struct {
	ContractName         string      `json:"contract_name" binding:"required"`
	ProjectNo            string      `json:"project_no"`
	ContractAmount       AmountValue `json:"contract_amount"`
	SignDate             string      `json:"sign_date"`
	CompanyName          string      `json:"company_name" binding:"required"`
	ContactPhone         string      `json:"contact_phone" binding:"required"`
	CorporatePrincipal   string      `json:"corporate_principal" binding:"required"`
	Department           string      `json:"department" binding:"required"`
	PaymentTerms         string      `json:"payment_terms"`
	OriginalContractNo   string      `json:"original_contract_no"`
	OriginalContractName string      `json:"original_contract_name"`
	Remarks              string      `json:"remarks"`
	ExecutivePartner     string      `json:"executive_partner"`
	Filler               string      `json:"filler"`
}

// FilterOptions 筛选下拉框可选值
type FilterOptions struct {
	ExecutivePartners []string `json:"executive_partners"`
	Fillers           []string `json:"fillers"`
}

func contractNoPrefix(contractType string) (string, error) {
	switch contractType {
	case entity.ContractTypeFramework:
		return "KJ", nil
	case entity.ContractTypeStandard:
		return "HT", nil
	default:
		return "", &ValidationError{Field: "contract_type", Message: "未知的合同类型"}
	}
}

func platformCode(platform string) (string, error) {
	switch platform {
	case entity.PlatformJinQian:
		return "JQ", nil
	case entity.PlatformJinChen:
		return "JC", nil
	default:
		return "", &ValidationError{Field: "platform", Message: "未知的所属平台"}
	}
}

// NextContractNo 推导下一个合同编号。
// 流水号取同类型同平台下ID最大合同编号的末4位加一，无记录时从1起。
func (s *ContractService) NextContractNo(ctx context.Context, contractType, platform string) (string, error) {
	prefix, err := contractNoPrefix(contractType)
	if err != nil {
		return "", err
	}
	code, err := platformCode(platform)
	if err != nil {
		return "", err
	}

	seq := 1
	last, err := s.repo.LastInGroup(ctx, contractType, platform)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("find last contract in group: %w", err)
		}
	} else {
		no := last.ContractNo
		if len(no) < 4 {
			return "", fmt.Errorf("malformed contract no %q", no)
		}
		n, err := strconv.Atoi(no[len(no)-4:])
		if err != nil {
			return "", fmt.Errorf("malformed contract no %q: %w", no, err)
		}
		seq = n + 1
	}

	return fmt.Sprintf("%s%s%s%04d", prefix, contractNoYear, code, seq), nil
}

func parseSignDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, &ValidationError{Field: "sign_date", Message: "日期格式应为YYYY-MM-DD"}
	}
	return &t, nil
}

func validateAmount(a AmountValue) error {
	if a.Valid && a.Value < 0 {
		return &ValidationError{Field: "contract_amount", Message: "合同金额不能为负数"}
	}
	return nil
}

// Create 创建合同并分配编号
func (s *ContractService) Create(ctx context.Context, req *CreateContractRequest) (*entity.Contract, error) {
	if err := validateAmount(req.ContractAmount); err != nil {
		return nil, err
	}
	signDate, err := parseSignDate(req.SignDate)
	if err != nil {
		return nil, err
	}

	contractNo, err := s.NextContractNo(ctx, req.ContractType, req.Platform)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	contract := &entity.Contract{
		ContractNo:           contractNo,
		ContractName:         req.ContractName,
		ProjectNo:            req.ProjectNo,
		ContractType:         req.ContractType,
		Platform:             req.Platform,
		ContractAmount:       req.ContractAmount.Ptr(),
		SignDate:             signDate,
		CompanyName:          req.CompanyName,
		ContactPhone:         req.ContactPhone,
		CorporatePrincipal:   req.CorporatePrincipal,
		Department:           req.Department,
		PaymentTerms:         req.PaymentTerms,
		OriginalContractNo:   req.OriginalContractNo,
		OriginalContractName: req.OriginalContractName,
		Remarks:              req.Remarks,
		ExecutivePartner:     req.ExecutivePartner,
		Filler:               req.Filler,
		Status:               entity.ContractStatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}
	return contract, nil
}

// Get 获取合同详情
func (s *ContractService) Get(ctx context.Context, id uint) (*entity.Contract, error) {
	return s.repo.FindByID(ctx, id)
}

// Update 更新合同可变字段。已作废的合同拒绝更新。
func (s *ContractService) Update(ctx context.Context, id uint, req *UpdateContractRequest) (*entity.Contract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract.IsVoided() {
		return nil, ErrContractVoided
	}

	if err := validateAmount(req.ContractAmount); err != nil {
		return nil, err
	}
	signDate, err := parseSignDate(req.SignDate)
	if err != nil {
		return nil, err
	}

	contract.ContractName = req.ContractName
	contract.ProjectNo = req.ProjectNo
	contract.ContractAmount = req.ContractAmount.Ptr()
	contract.SignDate = signDate
	contract.CompanyName = req.CompanyName
	contract.ContactPhone = req.ContactPhone
	contract.CorporatePrincipal = req.CorporatePrincipal
	contract.Department = req.Department
	contract.PaymentTerms = req.PaymentTerms
	contract.OriginalContractNo = req.OriginalContractNo
	contract.OriginalContractName = req.OriginalContractName
	contract.Remarks = req.Remarks
	contract.ExecutivePartner = req.ExecutivePartner
	contract.Filler = req.Filler
	contract.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, contract); err != nil {
		return nil, fmt.Errorf("save contract: %w", err)
	}
	return contract, nil
}

// Void 作废合同。单向操作，重复作废视为成功。
func (s *ContractService) Void(ctx context.Context, id uint) error {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	contract.Status = entity.ContractStatusInvalid
	contract.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, contract); err != nil {
		return fmt.Errorf("void contract: %w", err)
	}
	return nil
}

// CheckDelete 检查合同是否可删除。
// 仅当同类型同平台下不存在ID更大的合同时可删，否则删除会在编号序列中留下
// 后续生成无法察觉的空洞。
func (s *ContractService) CheckDelete(ctx context.Context, id uint) (bool, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	later, err := s.repo.ExistsLaterInGroup(ctx, contract.ContractType, contract.Platform, contract.ID)
	if err != nil {
		return false, fmt.Errorf("check later contracts: %w", err)
	}
	return !later, nil
}

// Delete 物理删除合同。删除时重新校验安全条件，不信任此前的检查结果。
func (s *ContractService) Delete(ctx context.Context, id uint) error {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	later, err := s.repo.ExistsLaterInGroup(ctx, contract.ContractType, contract.Platform, contract.ID)
	if err != nil {
		return fmt.Errorf("check later contracts: %w", err)
	}
	if later {
		return ErrDeleteBlocked
	}
	if err := s.repo.Delete(ctx, contract.ID); err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	return nil
}

// List 获取合同列表，创建时间倒序
func (s *ContractService) List(ctx context.Context, filter repository.ContractFilter) ([]entity.Contract, error) {
	contracts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return contracts, nil
}

// GetFilterOptions 获取筛选下拉框可选值，实时从现有数据投影
func (s *ContractService) GetFilterOptions(ctx context.Context) (*FilterOptions, error) {
	partners, err := s.repo.DistinctExecutivePartners(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct executive partners: %w", err)
	}
	fillers, err := s.repo.DistinctFillers(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct fillers: %w", err)
	}
	return &FilterOptions{ExecutivePartners: partners, Fillers: fillers}, nil
}
