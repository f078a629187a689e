package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"workshop_form_backend/internal/model"
	"workshop_form_backend/internal/testutil"
	"workshop_form_backend/internal/util"
	"workshop_form_backend/pkg/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitQuestionAppendsTokyoTimestamp(t *testing.T) {
	f := newFixture(t)
	f.qsvc.now = func() time.Time {
		return time.Date(2024, 3, 31, 15, 4, 5, 0, time.UTC)
	}

	entry, notices, err := f.qsvc.SubmitQuestion(context.Background(), "bob", "How do I reset?")

	require.NoError(t, err)
	assert.Equal(t, "2024-04-01 00:04:05", entry.SubmittedAt)
	assert.Equal(t, [][]string{{"bob", "How do I reset?", "2024-04-01 00:04:05"}}, f.question.Rows())
	assert.Equal(t, []string{util.MsgQuestionSent}, messages(notices, model.NoticeSuccess))
}

func TestSubmitQuestionTimestampFormat(t *testing.T) {
	f := newFixture(t)

	entry, _, err := f.qsvc.SubmitQuestion(context.Background(), "bob", "?")

	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, entry.SubmittedAt)
}

func TestSubmitQuestionRequiresNameAndQuestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, notices, err := f.qsvc.SubmitQuestion(ctx, "", "why?")
	assert.ErrorIs(t, err, util.ErrNameRequired)
	assert.Equal(t, []string{util.MsgNameAndQuestion}, messages(notices, model.NoticeError))

	_, _, err = f.qsvc.SubmitQuestion(ctx, "bob", " ")
	assert.ErrorIs(t, err, util.ErrQuestionRequired)

	assert.Zero(t, f.question.Calls(testutil.OpAppendRow))
}

func TestSubmitQuestionReportsFailure(t *testing.T) {
	f := newFixture(t)
	flaky := sheets.Transient(errors.New("unavailable"))
	f.question.FailOn(testutil.OpAppendRow, flaky, flaky, flaky)

	entry, notices, err := f.qsvc.SubmitQuestion(context.Background(), "bob", "why?")

	require.Error(t, err)
	assert.Nil(t, entry)
	assert.Equal(t, 3, f.question.Calls(testutil.OpAppendRow))
	assert.Len(t, messages(notices, model.NoticeWarning), 2)
	errs := messages(notices, model.NoticeError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], util.MsgQuestionFailed)
	assert.Empty(t, f.question.Rows())
}
