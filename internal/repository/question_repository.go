package repository

import (
	"context"

	"workshop_form_backend/internal/model"
	"workshop_form_backend/pkg/sheets"
)

// QuestionRepository 只追加的问题表
type QuestionRepository struct {
	handle *sheets.Handle
	sheet  string
}

func NewQuestionRepository(handle *sheets.Handle, sheet string) *QuestionRepository {
	return &QuestionRepository{handle: handle, sheet: sheet}
}

func (r *QuestionRepository) Append(ctx context.Context, entry model.QuestionEntry) error {
	ws, err := r.handle.Sheet(ctx, r.sheet)
	if err != nil {
		return err
	}
	return ws.AppendRow(ctx, entry.Row())
}
