package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSheet struct {
	Worksheet
	title string
}

func (s *stubSheet) Title() string { return s.title }

type stubBook struct {
	id     int
	titles []string
}

func (b *stubBook) SheetByIndex(ctx context.Context, index int) (Worksheet, error) {
	if index < 0 || index >= len(b.titles) {
		return nil, ErrSheetNotFound
	}
	return &stubSheet{title: b.titles[index]}, nil
}

func (b *stubBook) SheetByName(ctx context.Context, name string) (Worksheet, error) {
	for _, t := range b.titles {
		if t == name {
			return &stubSheet{title: t}, nil
		}
	}
	return nil, ErrSheetNotFound
}

func TestHandleReopensAfterExpiry(t *testing.T) {
	opens := 0
	h := NewHandle(func(ctx context.Context) (Workbook, error) {
		opens++
		return &stubBook{id: opens}, nil
	}, time.Hour)

	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return clock }

	ctx := context.Background()
	first, err := h.Workbook(ctx)
	require.NoError(t, err)

	clock = clock.Add(59 * time.Minute)
	again, err := h.Workbook(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, opens)

	clock = clock.Add(2 * time.Minute)
	reopened, err := h.Workbook(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, opens)
	assert.Equal(t, 2, reopened.(*stubBook).id)
}

func TestHandleDoesNotCacheFailures(t *testing.T) {
	fail := true
	opens := 0
	h := NewHandle(func(ctx context.Context) (Workbook, error) {
		opens++
		if fail {
			return nil, errors.New("unavailable")
		}
		return &stubBook{}, nil
	}, time.Hour)

	_, err := h.Workbook(context.Background())
	require.Error(t, err)

	fail = false
	_, err = h.Workbook(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, opens)
}

func TestHandleInvalidate(t *testing.T) {
	opens := 0
	h := NewHandle(func(ctx context.Context) (Workbook, error) {
		opens++
		return &stubBook{}, nil
	}, 0)

	ctx := context.Background()
	_, err := h.Workbook(ctx)
	require.NoError(t, err)
	_, err = h.Workbook(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, opens)

	h.Invalidate()
	_, err = h.Workbook(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, opens)
}

func TestHandleSheetReopensForNewTab(t *testing.T) {
	titles := []string{"回答"}
	opens := 0
	h := NewHandle(func(ctx context.Context) (Workbook, error) {
		opens++
		return &stubBook{id: opens, titles: append([]string(nil), titles...)}, nil
	}, time.Hour)
	ctx := context.Background()

	first, err := h.Sheet(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "回答", first.Title())

	// 打开之后才添加的工作表
	titles = append(titles, "質問")
	q, err := h.Sheet(ctx, "質問")
	require.NoError(t, err)
	assert.Equal(t, "質問", q.Title())
	assert.Equal(t, 2, opens)

	_, err = h.Sheet(ctx, "missing")
	assert.ErrorIs(t, err, ErrSheetNotFound)
	assert.Equal(t, 3, opens)
}
