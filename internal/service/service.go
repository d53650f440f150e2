package service

import (
	"errors"

	"github.com/yumiazusa/contract-sys/internal/config"
	"github.com/yumiazusa/contract-sys/internal/repository"
	"github.com/yumiazusa/contract-sys/internal/session"
)

// 错误定义
var (
	// ErrNotFound ID查找未命中
	ErrNotFound = repository.ErrNotFound
	// ErrContractVoided 已作废的合同不可编辑
	ErrContractVoided = errors.New("已作废的合同不可编辑")
	// ErrDeleteBlocked 同组存在更晚创建的合同，不可删除
	ErrDeleteBlocked = errors.New("该合同编号后续已有项目创建，不可删除")
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("用户名或密码错误")
)

// ValidationError 字段校验错误，Field为出错的请求字段名
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Services 服务集合
type Services struct {
	Contract *ContractService
	Auth     *AuthService
	Export   *ExportService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, sessions session.Store, cfg *config.Config) *Services {
	return &Services{
		Contract: NewContractService(repos.Contract),
		Auth:     NewAuthService(repos.User, sessions, cfg),
		Export:   NewExportService(repos.Contract),
	}
}
