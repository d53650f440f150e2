package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yumiazusa/contract-sys/internal/config"
	"github.com/yumiazusa/contract-sys/internal/service"
)

func init() {
	// 校验错误按JSON字段名报告
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// Handlers 处理器集合
type Handlers struct {
	Auth     *AuthHandler
	Contract *ContractHandler
	Export   *ExportHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:     NewAuthHandler(svc.Auth, cfg),
		Contract: NewContractHandler(svc.Contract),
		Export:   NewExportHandler(svc.Export),
	}
}

// Fail 失败响应
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// BindingMessage 将请求体绑定错误转为指明字段的提示
func BindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		if e.Tag() == "required" {
			return "缺少必填字段: " + e.Field()
		}
		return "字段校验失败: " + e.Field()
	}
	return "请求体格式错误: " + err.Error()
}

// HandleServiceError 服务层错误到HTTP响应的统一映射
func HandleServiceError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		Fail(c, http.StatusNotFound, "合同不存在")
	case errors.Is(err, service.ErrContractVoided):
		Fail(c, http.StatusBadRequest, service.ErrContractVoided.Error())
	case errors.Is(err, service.ErrDeleteBlocked):
		Fail(c, http.StatusBadRequest, service.ErrDeleteBlocked.Error())
	case errors.As(err, &ve):
		Fail(c, http.StatusBadRequest, ve.Error())
	default:
		Fail(c, http.StatusInternalServerError, err.Error())
	}
}
