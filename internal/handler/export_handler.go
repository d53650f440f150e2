package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/yumiazusa/contract-sys/internal/service"
)

// ExportHandler 导出处理器
type ExportHandler struct {
	svc *service.ExportService
}

// NewExportHandler 创建导出处理器
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ExportExcel GET /api/export/excel
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	f, filename, err := h.svc.ExportExcel(c.Request.Context())
	if err != nil {
		Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))

	if err := f.Write(c.Writer); err != nil {
		Fail(c, http.StatusInternalServerError, "write excel: "+err.Error())
	}
}
