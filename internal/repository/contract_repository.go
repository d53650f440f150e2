package repository

import (
	"context"
	"errors"

	"github.com/yumiazusa/contract-sys/internal/model/entity"
	"gorm.io/gorm"
)

// ContractRepository 合同仓库
type ContractRepository struct {
	db *gorm.DB
}

// NewContractRepository 创建合同仓库
func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// FindByID 根据ID查找合同
func (r *ContractRepository) FindByID(ctx context.Context, id uint) (*entity.Contract, error) {
	var contract entity.Contract
	err := r.db.WithContext(ctx).First(&contract, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}

// Create 创建合同
func (r *ContractRepository) Create(ctx context.Context, contract *entity.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

// Save 保存合同
func (r *ContractRepository) Save(ctx context.Context, contract *entity.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

// Delete 物理删除合同
func (r *ContractRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Contract{}, id).Error
}

// ContractFilter 列表筛选条件
type ContractFilter struct {
	ExecutivePartner string
	Filler           string
}

// List 获取合同列表，创建时间倒序
func (r *ContractRepository) List(ctx context.Context, filter ContractFilter) ([]entity.Contract, error) {
	var contracts []entity.Contract

	query := r.db.WithContext(ctx).Model(&entity.Contract{})
	if filter.ExecutivePartner != "" {
		query = query.Where("executive_partner = ?", filter.ExecutivePartner)
	}
	if filter.Filler != "" {
		query = query.Where("filler = ?", filter.Filler)
	}

	err := query.Order("created_at DESC").Find(&contracts).Error
	return contracts, err
}

// LastInGroup 查找同类型同平台下内部ID最大的合同。
// ID序作为创建序的代理，编号规则据此推导下一个流水号。
func (r *ContractRepository) LastInGroup(ctx context.Context, contractType, platform string) (*entity.Contract, error) {
	var contract entity.Contract
	err := r.db.WithContext(ctx).
		Where("contract_type = ? AND platform = ?", contractType, platform).
		Order("id DESC").
		First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}

// ExistsLaterInGroup 同类型同平台下是否存在ID更大的合同
func (r *ContractRepository) ExistsLaterInGroup(ctx context.Context, contractType, platform string, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Contract{}).
		Where("contract_type = ? AND platform = ? AND id > ?", contractType, platform, id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DistinctExecutivePartners 当前已有的执行合伙人去重列表
func (r *ContractRepository) DistinctExecutivePartners(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, "executive_partner")
}

// DistinctFillers 当前已有的填表人去重列表
func (r *ContractRepository) DistinctFillers(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, "filler")
}

func (r *ContractRepository) distinctColumn(ctx context.Context, column string) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&entity.Contract{}).
		Distinct(column).
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Order(column).
		Pluck(column, &values).Error
	return values, err
}
