package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/yumiazusa/contract-sys/internal/repository"
)

// ExportService 合同台账导出服务
type ExportService struct {
	repo *repository.ContractRepository
}

// NewExportService 创建导出服务
func NewExportService(repo *repository.ContractRepository) *ExportService {
	return &ExportService{repo: repo}
}

// 导出列顺序与表头文案固定，区别于JSON字段顺序
var exportHeaders = []string{
	"序号", "合同编号", "合同名称", "项目号", "合同类型", "所属平台",
	"合同金额 (元)", "签订日期", "单位名称", "企业负责人", "联系电话",
	"执行合伙人", "填表人", "所属部门", "支付条件",
	"原合同编号", "原合同名称", "状态", "备注", "创建时间", "更新时间",
}

var exportColWidths = []float64{
	8, 15, 30, 20, 12, 12, 15, 12, 25, 12, 15, 12, 12, 18, 30, 15, 25, 10, 30, 20, 20,
}

// ExportExcel 生成全量合同台账工作簿，创建时间倒序，不受列表筛选影响
func (s *ExportService) ExportExcel(ctx context.Context) (*excelize.File, string, error) {
	contracts, err := s.repo.List(ctx, repository.ContractFilter{})
	if err != nil {
		return nil, "", fmt.Errorf("list contracts: %w", err)
	}

	f := excelize.NewFile()
	sheet := "合同列表"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E74C3C"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})

	for i, h := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	total := len(contracts)
	for i, c := range contracts {
		row := i + 2
		// 序号按自然顺序倒排，最新记录序号最大
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), total-i)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), c.ContractNo)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), c.ContractName)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), c.ProjectNo)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), c.ContractType)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), c.Platform)
		if c.ContractAmount != nil {
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), *c.ContractAmount)
		} else {
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), 0)
		}
		if c.SignDate != nil {
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), c.SignDate.Format("2006-01-02"))
		} else {
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), "")
		}
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), c.CompanyName)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), c.CorporatePrincipal)
		f.SetCellValue(sheet, fmt.Sprintf("K%d", row), c.ContactPhone)
		f.SetCellValue(sheet, fmt.Sprintf("L%d", row), c.ExecutivePartner)
		f.SetCellValue(sheet, fmt.Sprintf("M%d", row), c.Filler)
		f.SetCellValue(sheet, fmt.Sprintf("N%d", row), c.Department)
		f.SetCellValue(sheet, fmt.Sprintf("O%d", row), c.PaymentTerms)
		f.SetCellValue(sheet, fmt.Sprintf("P%d", row), c.OriginalContractNo)
		f.SetCellValue(sheet, fmt.Sprintf("Q%d", row), c.OriginalContractName)
		status := "正常"
		if c.IsVoided() {
			status = "已作废"
		}
		f.SetCellValue(sheet, fmt.Sprintf("R%d", row), status)
		f.SetCellValue(sheet, fmt.Sprintf("S%d", row), c.Remarks)
		f.SetCellValue(sheet, fmt.Sprintf("T%d", row), c.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, fmt.Sprintf("U%d", row), c.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	for i, w := range exportColWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("合同列表_%s.xlsx", time.Now().Format("20060102150405"))
	return f, filename, nil
}
