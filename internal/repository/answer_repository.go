package repository

import (
	"context"

	"workshop_form_backend/pkg/sheets"
)

// AnswerRepository 访问答案表：第 1 行为表头，第一列为用户名
type AnswerRepository struct {
	handle *sheets.Handle
	sheet  string
}

// NewAnswerRepository sheet 为空时使用工作簿的第一个工作表
func NewAnswerRepository(handle *sheets.Handle, sheet string) *AnswerRepository {
	return &AnswerRepository{handle: handle, sheet: sheet}
}

func (r *AnswerRepository) worksheet(ctx context.Context) (sheets.Worksheet, error) {
	return r.handle.Sheet(ctx, r.sheet)
}

// FindUserRow 查找第一列等于 username 的行
func (r *AnswerRepository) FindUserRow(ctx context.Context, username string) (int, bool, error) {
	ws, err := r.worksheet(ctx)
	if err != nil {
		return 0, false, err
	}
	return ws.Find(ctx, username)
}

func (r *AnswerRepository) GetAnswer(ctx context.Context, row, col int) (string, error) {
	ws, err := r.worksheet(ctx)
	if err != nil {
		return "", err
	}
	return ws.Cell(ctx, row, col)
}

func (r *AnswerRepository) SaveAnswer(ctx context.Context, row, col int, answer string) error {
	ws, err := r.worksheet(ctx)
	if err != nil {
		return err
	}
	return ws.UpdateCell(ctx, row, col, answer)
}

// HeaderWidth 表头行的列数
func (r *AnswerRepository) HeaderWidth(ctx context.Context) (int, error) {
	ws, err := r.worksheet(ctx)
	if err != nil {
		return 0, err
	}
	header, err := ws.RowValues(ctx, 1)
	if err != nil {
		return 0, err
	}
	return len(header), nil
}

// AppendUserRow 追加 [username, "", ...]，总列数为 width
func (r *AnswerRepository) AppendUserRow(ctx context.Context, username string, width int) error {
	ws, err := r.worksheet(ctx)
	if err != nil {
		return err
	}
	if width < 1 {
		width = 1
	}
	row := make([]string, width)
	row[0] = username
	return ws.AppendRow(ctx, row)
}

// WriteHeader 写入表头，第 1 列为用户名列
func (r *AnswerRepository) WriteHeader(ctx context.Context, usernameLabel string, labels []string) error {
	ws, err := r.worksheet(ctx)
	if err != nil {
		return err
	}
	if err := ws.UpdateCell(ctx, 1, 1, usernameLabel); err != nil {
		return err
	}
	for i, label := range labels {
		if err := ws.UpdateCell(ctx, 1, i+2, label); err != nil {
			return err
		}
	}
	return nil
}
