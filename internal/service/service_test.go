package service

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"workshop_form_backend/internal/repository"
	"workshop_form_backend/internal/testutil"
	"workshop_form_backend/pkg/lock"
	"workshop_form_backend/pkg/retry"
	"workshop_form_backend/pkg/sheets"
)

var testLabels = []string{
	"ワーク2-1 プロンプト",
	"ワーク2-1 ChatGPTの回答",
	"ワーク2-2 プロンプト",
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func newExecutor() *retry.Executor {
	return retry.NewExecutor(
		retry.Policy{MaxAttempts: 3, BaseDelay: time.Second},
		sheets.IsTransient,
		retry.WithRandom(func() float64 { return 0.5 }),
		retry.WithSleep(noSleep),
	)
}

type fixture struct {
	book     *testutil.MemoryWorkbook
	answers  *testutil.MemorySheet
	question *testutil.MemorySheet
	svc      *AnswerService
	qsvc     *QuestionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	book := testutil.NewMemoryWorkbook("回答", "質問")
	answers := book.Sheet("回答")
	answers.SetRow(1, append([]string{"ユーザー名"}, testLabels...)...)

	handle := book.NewHandle()
	executor := newExecutor()
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{
		book:     book,
		answers:  answers,
		question: book.Sheet("質問"),
		svc: NewAnswerService(
			repository.NewAnswerRepository(handle, ""),
			NewQuestionCatalog(testLabels),
			executor,
			lock.NewLocal(),
		),
		qsvc: NewQuestionService(repository.NewQuestionRepository(handle, "質問"), executor, loc),
	}
}
