package entity

import (
	"time"
)

// Contract 合同台账记录
type Contract struct {
	ID                   uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	ContractNo           string     `json:"contract_no" gorm:"size:50;not null;uniqueIndex"`
	ContractName         string     `json:"contract_name" gorm:"size:200;not null"`
	ProjectNo            string     `json:"project_no" gorm:"size:500"`
	ContractType         string     `json:"contract_type" gorm:"size:20;not null"`
	Platform             string     `json:"platform" gorm:"size:10;not null"`
	ContractAmount       *float64   `json:"contract_amount" gorm:"type:decimal(15,2)"`
	SignDate             *time.Time `json:"sign_date" gorm:"type:date"`
	CompanyName          string     `json:"company_name" gorm:"size:200;not null"`
	ContactPhone         string     `json:"contact_phone" gorm:"size:50;not null"`
	CorporatePrincipal   string     `json:"corporate_principal" gorm:"size:100;not null"`
	Department           string     `json:"department" gorm:"size:50;not null"`
	PaymentTerms         string     `json:"payment_terms" gorm:"type:text"`
	OriginalContractNo   string     `json:"original_contract_no" gorm:"size:50"`
	OriginalContractName string     `json:"original_contract_name" gorm:"size:200"`
	Remarks              string     `json:"remarks" gorm:"type:text"`
	ExecutivePartner     string     `json:"executive_partner" gorm:"size:255"`
	Filler               string     `json:"filler" gorm:"size:255"`
	Status               string     `json:"status" gorm:"size:20;not null;default:active"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (Contract) TableName() string {
	return "contracts"
}

// ContractStatus 合同状态
const (
	ContractStatusActive  = "active"
	ContractStatusInvalid = "invalid" // 已作废，终态
)

// ContractType 合同类型（封闭集合，决定编号前缀）
const (
	ContractTypeFramework = "框架合同"
	ContractTypeStandard  = "普通合同"
)

// Platform 所属平台（封闭集合，决定编号平台段）
const (
	PlatformJinQian = "金乾"
	PlatformJinChen = "金宸"
)

// IsVoided 合同是否已作废
func (c *Contract) IsVoided() bool {
	return c.Status == ContractStatusInvalid
}
