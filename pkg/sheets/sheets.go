// Package sheets 定义表格协作方（工作簿/工作表）的最小接口与其实现。
//
// 行号与列号均从 1 开始，第 1 行为表头。
package sheets

import (
	"context"
	"errors"
)

var (
	ErrSheetNotFound = errors.New("worksheet not found")
	ErrInvalidCell   = errors.New("row and column must be positive")
)

// Worksheet 是单个工作表上的行/单元格操作
type Worksheet interface {
	Title() string
	// Find 返回第一列等于 value 的首个行号
	Find(ctx context.Context, value string) (row int, found bool, err error)
	Cell(ctx context.Context, row, col int) (string, error)
	UpdateCell(ctx context.Context, row, col int, value string) error
	// RowValues 返回该行的值，末尾空单元格会被截掉
	RowValues(ctx context.Context, row int) ([]string, error)
	// AppendRow 在已有数据之后追加一行，不返回位置
	AppendRow(ctx context.Context, values []string) error
}

type Workbook interface {
	SheetByIndex(ctx context.Context, index int) (Worksheet, error)
	SheetByName(ctx context.Context, name string) (Worksheet, error)
}

// Opener 建立到工作簿的连接
type Opener func(ctx context.Context) (Workbook, error)

func checkCell(row, col int) error {
	if row < 1 || col < 1 {
		return ErrInvalidCell
	}
	return nil
}

func trimTrailingEmpty(values []string) []string {
	n := len(values)
	for n > 0 && values[n-1] == "" {
		n--
	}
	return values[:n]
}
