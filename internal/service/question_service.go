package service

import (
	"context"
	"strings"
	"time"

	"workshop_form_backend/internal/model"
	"workshop_form_backend/internal/repository"
	"workshop_form_backend/internal/util"
	"workshop_form_backend/pkg/logger"
	"workshop_form_backend/pkg/monitoring"
	"workshop_form_backend/pkg/retry"

	"go.uber.org/zap"
)

type QuestionService struct {
	repo  *repository.QuestionRepository
	retry *retry.Executor
	loc   *time.Location
	now   func() time.Time
}

func NewQuestionService(repo *repository.QuestionRepository, executor *retry.Executor, loc *time.Location) *QuestionService {
	return &QuestionService{
		repo:  repo,
		retry: executor,
		loc:   loc,
		now:   time.Now,
	}
}

// SubmitQuestion 以当前时区时间戳追加 [name, question, timestamp]
func (s *QuestionService) SubmitQuestion(ctx context.Context, name, question string) (*model.QuestionEntry, []model.Notice, error) {
	n := util.NewNotices()

	if strings.TrimSpace(name) == "" {
		n.Error(util.MsgNameAndQuestion)
		return nil, n.List(), util.ErrNameRequired
	}
	if strings.TrimSpace(question) == "" {
		n.Error(util.MsgNameAndQuestion)
		return nil, n.List(), util.ErrQuestionRequired
	}

	entry := model.QuestionEntry{
		Name:        name,
		Question:    question,
		SubmittedAt: s.now().In(s.loc).Format(util.TimeFormat),
	}

	err := s.retry.Run(ctx, n, "append_row", func(ctx context.Context) error {
		return s.repo.Append(ctx, entry)
	})
	if err != nil {
		logger.Log.Error("Question submission failed", zap.Error(err))
		n.Error(util.MsgQuestionFailed + err.Error())
		monitoring.SubmissionOutcomes.WithLabelValues("question", string(model.OutcomeFailed)).Inc()
		return nil, n.List(), err
	}

	n.Success(util.MsgQuestionSent)
	monitoring.SubmissionOutcomes.WithLabelValues("question", string(model.OutcomeWritten)).Inc()
	return &entry, n.List(), nil
}
