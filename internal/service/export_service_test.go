package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/yumiazusa/contract-sys/internal/model/entity"
	"github.com/yumiazusa/contract-sys/internal/repository"
	"github.com/yumiazusa/contract-sys/internal/testutil"
)

func TestExportExcelContainsAllContracts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewExportService(repository.NewContractRepository(db))

	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	amount := 88000.00
	testutil.SeedContract(t, db, "KJ2026JQ0001", entity.ContractTypeFramework, entity.PlatformJinQian, func(c *entity.Contract) {
		c.CreatedAt = base
		c.ContractAmount = &amount
	})
	testutil.SeedContract(t, db, "KJ2026JQ0002", entity.ContractTypeFramework, entity.PlatformJinQian, func(c *entity.Contract) {
		c.CreatedAt = base.Add(time.Hour)
		c.Status = entity.ContractStatusInvalid
	})

	f, filename, err := svc.ExportExcel(context.Background())
	if err != nil {
		t.Fatalf("ExportExcel failed: %v", err)
	}
	defer f.Close()

	if !strings.HasPrefix(filename, "合同列表_") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("Unexpected filename %s", filename)
	}

	rows, err := f.GetRows("合同列表")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	// 表头 + 全部合同（作废的也导出）
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}

	for i, want := range exportHeaders {
		if i >= len(rows[0]) || rows[0][i] != want {
			t.Fatalf("Header column %d: expected %s, got %v", i, want, rows[0])
		}
	}

	// 创建时间倒序：最新合同在第一行数据
	if rows[1][1] != "KJ2026JQ0002" {
		t.Errorf("Expected newest contract first, got %s", rows[1][1])
	}
	if rows[2][1] != "KJ2026JQ0001" {
		t.Errorf("Expected oldest contract last, got %s", rows[2][1])
	}

	// 序号倒排，状态文案
	if rows[1][0] != "2" || rows[2][0] != "1" {
		t.Errorf("Unexpected sequence column: %s / %s", rows[1][0], rows[2][0])
	}
	if rows[1][17] != "已作废" || rows[2][17] != "正常" {
		t.Errorf("Unexpected status column: %s / %s", rows[1][17], rows[2][17])
	}
}

func TestExportExcelEmptyLedger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewExportService(repository.NewContractRepository(db))

	f, _, err := svc.ExportExcel(context.Background())
	if err != nil {
		t.Fatalf("ExportExcel failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("合同列表")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Expected header row only, got %d rows", len(rows))
	}
}
