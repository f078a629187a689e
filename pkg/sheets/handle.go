package sheets

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Handle 懒加载并缓存工作簿连接，过期后在下一次访问时重新建立
type Handle struct {
	open Opener
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	book    Workbook
	expires time.Time
}

func NewHandle(open Opener, ttl time.Duration) *Handle {
	return &Handle{open: open, ttl: ttl, now: time.Now}
}

func (h *Handle) Workbook(ctx context.Context) (Workbook, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if h.book != nil && (h.ttl <= 0 || now.Before(h.expires)) {
		return h.book, nil
	}

	book, err := h.open(ctx)
	if err != nil {
		return nil, err
	}
	h.book = book
	h.expires = now.Add(h.ttl)
	return book, nil
}

// Sheet 按名称取工作表，名称为空时取第一个工作表。
// 缓存的工作簿里找不到时重新打开一次，工作表可能在打开之后才被添加或改名
func (h *Handle) Sheet(ctx context.Context, name string) (Worksheet, error) {
	ws, err := h.sheet(ctx, name)
	if !errors.Is(err, ErrSheetNotFound) {
		return ws, err
	}
	h.Invalidate()
	return h.sheet(ctx, name)
}

func (h *Handle) sheet(ctx context.Context, name string) (Worksheet, error) {
	book, err := h.Workbook(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return book.SheetByIndex(ctx, 0)
	}
	return book.SheetByName(ctx, name)
}

// Invalidate 丢弃缓存的连接
func (h *Handle) Invalidate() {
	h.mu.Lock()
	h.book = nil
	h.mu.Unlock()
}
