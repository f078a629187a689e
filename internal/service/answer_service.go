package service

import (
	"context"
	"strings"

	"workshop_form_backend/internal/model"
	"workshop_form_backend/internal/repository"
	"workshop_form_backend/internal/util"
	"workshop_form_backend/pkg/lock"
	"workshop_form_backend/pkg/logger"
	"workshop_form_backend/pkg/monitoring"
	"workshop_form_backend/pkg/retry"

	"go.uber.org/zap"
)

// AnswerService 答案表的查找或追加、冲突确认流程
type AnswerService struct {
	repo    *repository.AnswerRepository
	catalog *QuestionCatalog
	retry   *retry.Executor
	locker  lock.Locker
}

func NewAnswerService(repo *repository.AnswerRepository, catalog *QuestionCatalog, executor *retry.Executor, locker lock.Locker) *AnswerService {
	return &AnswerService{
		repo:    repo,
		catalog: catalog,
		retry:   executor,
		locker:  locker,
	}
}

type rowLookup struct {
	row   int
	found bool
}

// SubmitAnswer 写入答案；目标单元格非空时不写入，返回待确认的覆盖请求
func (s *AnswerService) SubmitAnswer(ctx context.Context, sub model.AnswerSubmission) model.WriteOutcome {
	n := util.NewNotices()

	if strings.TrimSpace(sub.Username) == "" {
		n.Error(util.MsgUsernameRequired)
		return s.finish(n, failed(util.ErrUsernameRequired))
	}
	index, err := s.catalog.Index(sub.QuestionLabel)
	if err != nil {
		n.Error(util.MsgUnknownQuestion)
		return s.finish(n, failed(err))
	}

	unlock, err := s.locker.Lock(ctx, "answer:"+sub.Username)
	if err != nil {
		return s.finish(n, s.fail(n, util.MsgAnswerFailed, err))
	}
	defer unlock()

	outcome, err := s.write(ctx, n, sub.Username, index, sub.Answer)
	if err != nil {
		return s.finish(n, s.fail(n, util.MsgAnswerFailed, err))
	}
	if outcome.Kind == model.OutcomeWritten {
		n.Success(util.MsgAnswerSent)
	}
	return s.finish(n, outcome)
}

func (s *AnswerService) write(ctx context.Context, n retry.Notifier, username string, index int, answer string) (model.WriteOutcome, error) {
	col := Column(index)

	found, err := s.findRow(ctx, n, username)
	if err != nil {
		return model.WriteOutcome{}, err
	}

	if found.found {
		existing, err := retry.Do(ctx, s.retry, n, "cell", func(ctx context.Context) (string, error) {
			return s.repo.GetAnswer(ctx, found.row, col)
		})
		if err != nil {
			return model.WriteOutcome{}, err
		}

		// 只要非空就需要确认，与内容是否相同无关
		if existing != "" {
			return model.WriteOutcome{
				Kind: model.OutcomeNeedsConfirmation,
				Pending: &model.PendingOverwrite{
					Username:       username,
					QuestionIndex:  index,
					Row:            found.row,
					Column:         col,
					Answer:         answer,
					ExistingAnswer: existing,
				},
			}, nil
		}

		if err := s.save(ctx, n, found.row, col, answer); err != nil {
			return model.WriteOutcome{}, err
		}
		return model.WriteOutcome{Kind: model.OutcomeWritten}, nil
	}

	width, err := retry.Do(ctx, s.retry, n, "row_values", s.repo.HeaderWidth)
	if err != nil {
		return model.WriteOutcome{}, err
	}
	if err := s.retry.Run(ctx, n, "append_row", func(ctx context.Context) error {
		return s.repo.AppendUserRow(ctx, username, width)
	}); err != nil {
		return model.WriteOutcome{}, err
	}

	// 追加不返回行号，需要重新查找
	found, err = s.findRow(ctx, n, username)
	if err != nil {
		return model.WriteOutcome{}, err
	}
	if !found.found {
		return model.WriteOutcome{}, util.ErrRowNotFound
	}

	if err := s.save(ctx, n, found.row, col, answer); err != nil {
		return model.WriteOutcome{}, err
	}
	return model.WriteOutcome{Kind: model.OutcomeWritten}, nil
}

// ResolveOverwrite 处理用户对覆盖请求的确认或取消
func (s *AnswerService) ResolveOverwrite(ctx context.Context, pending model.PendingOverwrite, confirm bool) model.WriteOutcome {
	n := util.NewNotices()

	if !confirm {
		n.Info(util.MsgOverwriteCancelled)
		return s.finish(n, model.WriteOutcome{Kind: model.OutcomeCancelled})
	}

	unlock, err := s.locker.Lock(ctx, "answer:"+pending.Username)
	if err != nil {
		return s.finish(n, s.fail(n, util.MsgOverwriteFailed, err))
	}
	defer unlock()

	outcome, err := s.overwrite(ctx, n, pending)
	if err != nil {
		return s.finish(n, s.fail(n, util.MsgOverwriteFailed, err))
	}
	if outcome.Kind == model.OutcomeWritten {
		n.Success(util.MsgAnswerOverwritten)
	}
	return s.finish(n, outcome)
}

func (s *AnswerService) overwrite(ctx context.Context, n retry.Notifier, pending model.PendingOverwrite) (model.WriteOutcome, error) {
	// 行可能因其它会话的编辑而移动
	found, err := s.findRow(ctx, n, pending.Username)
	if err != nil {
		return model.WriteOutcome{}, err
	}
	if !found.found {
		return model.WriteOutcome{}, util.ErrRowNotFound
	}
	pending.Row = found.row

	current, err := retry.Do(ctx, s.retry, n, "cell", func(ctx context.Context) (string, error) {
		return s.repo.GetAnswer(ctx, pending.Row, pending.Column)
	})
	if err != nil {
		return model.WriteOutcome{}, err
	}

	// 用户看到的旧值已被他人修改，需要重新确认
	if current != "" && current != pending.ExistingAnswer {
		pending.ExistingAnswer = current
		return model.WriteOutcome{Kind: model.OutcomeNeedsConfirmation, Pending: &pending}, nil
	}

	if err := s.save(ctx, n, pending.Row, pending.Column, pending.Answer); err != nil {
		return model.WriteOutcome{}, err
	}
	return model.WriteOutcome{Kind: model.OutcomeWritten}, nil
}

func (s *AnswerService) findRow(ctx context.Context, n retry.Notifier, username string) (rowLookup, error) {
	return retry.Do(ctx, s.retry, n, "find", func(ctx context.Context) (rowLookup, error) {
		row, found, err := s.repo.FindUserRow(ctx, username)
		return rowLookup{row: row, found: found}, err
	})
}

func (s *AnswerService) save(ctx context.Context, n retry.Notifier, row, col int, answer string) error {
	return s.retry.Run(ctx, n, "update_cell", func(ctx context.Context) error {
		return s.repo.SaveAnswer(ctx, row, col, answer)
	})
}

func (s *AnswerService) fail(n *util.Notices, prefix string, err error) model.WriteOutcome {
	logger.Log.Error("Answer submission failed", zap.Error(err))
	n.Error(prefix + err.Error())
	return failed(err)
}

// finish 补充确认提示并记录指标
func (s *AnswerService) finish(n *util.Notices, outcome model.WriteOutcome) model.WriteOutcome {
	if outcome.Kind == model.OutcomeNeedsConfirmation {
		n.Warn(util.MsgOverwriteConfirm)
	}
	monitoring.SubmissionOutcomes.WithLabelValues("answer", string(outcome.Kind)).Inc()
	outcome.Notices = n.List()
	return outcome
}

func failed(err error) model.WriteOutcome {
	return model.WriteOutcome{Kind: model.OutcomeFailed, Reason: err.Error(), Err: err}
}
