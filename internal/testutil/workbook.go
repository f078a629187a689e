// Package testutil 提供测试用的内存工作簿，可按操作注入错误。
package testutil

import (
	"context"
	"fmt"
	"sync"

	"workshop_form_backend/pkg/sheets"
)

// 可注入错误的操作名
const (
	OpFind       = "find"
	OpCell       = "cell"
	OpUpdateCell = "update_cell"
	OpRowValues  = "row_values"
	OpAppendRow  = "append_row"
)

type MemorySheet struct {
	mu    sync.Mutex
	title string
	rows  [][]string
	fails map[string][]error
	calls map[string]int
}

func newMemorySheet(title string) *MemorySheet {
	return &MemorySheet{
		title: title,
		fails: make(map[string][]error),
		calls: make(map[string]int),
	}
}

// FailOn 让 op 接下来的调用依次返回 errs
func (s *MemorySheet) FailOn(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[op] = append(s.fails[op], errs...)
}

func (s *MemorySheet) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// SetRow 直接写入第 row 行
func (s *MemorySheet) SetRow(row int, values ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grow(row, len(values))
	copy(s.rows[row-1], values)
}

// Rows 返回全部行的拷贝
func (s *MemorySheet) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (s *MemorySheet) Value(row, col int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row > len(s.rows) || col > len(s.rows[row-1]) {
		return ""
	}
	return s.rows[row-1][col-1]
}

func (s *MemorySheet) enter(op string) error {
	s.mu.Lock()
	s.calls[op]++
	if q := s.fails[op]; len(q) > 0 {
		err := q[0]
		s.fails[op] = q[1:]
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemorySheet) grow(row, cols int) {
	for len(s.rows) < row {
		s.rows = append(s.rows, []string{})
	}
	if len(s.rows[row-1]) < cols {
		r := make([]string, cols)
		copy(r, s.rows[row-1])
		s.rows[row-1] = r
	}
}

func (s *MemorySheet) Title() string { return s.title }

func (s *MemorySheet) Find(ctx context.Context, value string) (int, bool, error) {
	if err := s.enter(OpFind); err != nil {
		return 0, false, err
	}
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if len(r) > 0 && r[0] == value {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func (s *MemorySheet) Cell(ctx context.Context, row, col int) (string, error) {
	if err := s.enter(OpCell); err != nil {
		return "", err
	}
	defer s.mu.Unlock()
	if row < 1 || col < 1 {
		return "", sheets.ErrInvalidCell
	}
	if row > len(s.rows) || col > len(s.rows[row-1]) {
		return "", nil
	}
	return s.rows[row-1][col-1], nil
}

func (s *MemorySheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	if err := s.enter(OpUpdateCell); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if row < 1 || col < 1 {
		return sheets.ErrInvalidCell
	}
	s.grow(row, col)
	s.rows[row-1][col-1] = value
	return nil
}

func (s *MemorySheet) RowValues(ctx context.Context, row int) ([]string, error) {
	if err := s.enter(OpRowValues); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	if row > len(s.rows) {
		return []string{}, nil
	}
	r := s.rows[row-1]
	n := len(r)
	for n > 0 && r[n-1] == "" {
		n--
	}
	return append([]string(nil), r[:n]...), nil
}

func (s *MemorySheet) AppendRow(ctx context.Context, values []string) error {
	if err := s.enter(OpAppendRow); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.rows = append(s.rows, append([]string(nil), values...))
	return nil
}

type MemoryWorkbook struct {
	sheets []*MemorySheet
	opens  int
	mu     sync.Mutex
}

func NewMemoryWorkbook(titles ...string) *MemoryWorkbook {
	b := &MemoryWorkbook{}
	for _, t := range titles {
		b.sheets = append(b.sheets, newMemorySheet(t))
	}
	return b
}

func (b *MemoryWorkbook) Sheet(title string) *MemorySheet {
	for _, s := range b.sheets {
		if s.title == title {
			return s
		}
	}
	return nil
}

func (b *MemoryWorkbook) SheetByIndex(ctx context.Context, index int) (sheets.Worksheet, error) {
	if index < 0 || index >= len(b.sheets) {
		return nil, fmt.Errorf("%w: index %d", sheets.ErrSheetNotFound, index)
	}
	return b.sheets[index], nil
}

func (b *MemoryWorkbook) SheetByName(ctx context.Context, name string) (sheets.Worksheet, error) {
	if s := b.Sheet(name); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", sheets.ErrSheetNotFound, name)
}

// Opener 返回总是打开本工作簿的 sheets.Opener
func (b *MemoryWorkbook) Opener() sheets.Opener {
	return func(ctx context.Context) (sheets.Workbook, error) {
		b.mu.Lock()
		b.opens++
		b.mu.Unlock()
		return b, nil
	}
}

func (b *MemoryWorkbook) Opens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens
}

// NewHandle 包装为永不过期的 Handle
func (b *MemoryWorkbook) NewHandle() *sheets.Handle {
	return sheets.NewHandle(b.Opener(), 0)
}
