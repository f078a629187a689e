package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"workshop_form_backend/internal/model"
	"workshop_form_backend/pkg/sheets"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MySQL 中可以重试的错误码
const (
	mysqlErrDupEntry        = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// WorkbookRepository 用数据库单元格表实现 sheets.Workbook，供无 Google 凭据的部署使用
type WorkbookRepository struct {
	DB *gorm.DB
}

func NewWorkbookRepository(db *gorm.DB) *WorkbookRepository {
	return &WorkbookRepository{DB: db}
}

// EnsureSheet 不存在时按顺序创建工作表
func (r *WorkbookRepository) EnsureSheet(title string) error {
	var tab model.SheetTab
	err := r.DB.Where("title = ?", title).First(&tab).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var count int64
	if err := r.DB.Model(&model.SheetTab{}).Count(&count).Error; err != nil {
		return err
	}
	return r.DB.Create(&model.SheetTab{Title: title, Position: int(count)}).Error
}

func (r *WorkbookRepository) SheetByIndex(ctx context.Context, index int) (sheets.Worksheet, error) {
	var tab model.SheetTab
	err := r.DB.WithContext(ctx).Order("position").Offset(index).Limit(1).First(&tab).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: index %d", sheets.ErrSheetNotFound, index)
	}
	if err != nil {
		return nil, classify(err)
	}
	return &cellSheet{db: r.DB, tab: tab}, nil
}

func (r *WorkbookRepository) SheetByName(ctx context.Context, name string) (sheets.Worksheet, error) {
	var tab model.SheetTab
	err := r.DB.WithContext(ctx).Where("title = ?", name).First(&tab).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", sheets.ErrSheetNotFound, name)
	}
	if err != nil {
		return nil, classify(err)
	}
	return &cellSheet{db: r.DB, tab: tab}, nil
}

type cellSheet struct {
	db  *gorm.DB
	tab model.SheetTab
}

func (s *cellSheet) Title() string { return s.tab.Title }

func (s *cellSheet) Find(ctx context.Context, value string) (int, bool, error) {
	var cell model.SheetCell
	err := s.db.WithContext(ctx).
		Where("sheet_id = ? AND col = 1 AND value = ?", s.tab.ID, value).
		Order("`row`").
		First(&cell).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, classify(err)
	}
	return cell.Row, true, nil
}

func (s *cellSheet) Cell(ctx context.Context, row, col int) (string, error) {
	if row < 1 || col < 1 {
		return "", sheets.ErrInvalidCell
	}
	var cell model.SheetCell
	err := s.db.WithContext(ctx).
		Where("sheet_id = ? AND `row` = ? AND col = ?", s.tab.ID, row, col).
		First(&cell).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", classify(err)
	}
	return cell.Value, nil
}

func (s *cellSheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	if row < 1 || col < 1 {
		return sheets.ErrInvalidCell
	}
	cell := model.SheetCell{SheetID: s.tab.ID, Row: row, Col: col, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sheet_id"}, {Name: "row"}, {Name: "col"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&cell).Error
	return classify(err)
}

func (s *cellSheet) RowValues(ctx context.Context, row int) ([]string, error) {
	if row < 1 {
		return nil, sheets.ErrInvalidCell
	}
	var cells []model.SheetCell
	err := s.db.WithContext(ctx).
		Where("sheet_id = ? AND `row` = ?", s.tab.ID, row).
		Order("col").
		Find(&cells).Error
	if err != nil {
		return nil, classify(err)
	}
	if len(cells) == 0 {
		return []string{}, nil
	}

	values := make([]string, cells[len(cells)-1].Col)
	for _, c := range cells {
		values[c.Col-1] = c.Value
	}
	n := len(values)
	for n > 0 && values[n-1] == "" {
		n--
	}
	return values[:n], nil
}

func (s *cellSheet) AppendRow(ctx context.Context, values []string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&model.SheetCell{}).
			Where("sheet_id = ?", s.tab.ID).
			Select("COALESCE(MAX(`row`), 0)").
			Scan(&last).Error; err != nil {
			return err
		}

		if len(values) == 0 {
			values = []string{""}
		}
		cells := make([]model.SheetCell, len(values))
		for i, v := range values {
			cells[i] = model.SheetCell{SheetID: s.tab.ID, Row: last + 1, Col: i + 1, Value: v}
		}
		return tx.Create(&cells).Error
	})
	return classify(err)
}

// classify 把可重试的数据库错误标记为临时错误
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) {
		return sheets.Transient(err)
	}
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		switch merr.Number {
		case mysqlErrDupEntry, mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			// 并发追加时行号冲突，重试会重新计算行号
			return sheets.Transient(err)
		}
	}
	return err
}
