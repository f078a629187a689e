package util

import (
	"sync"

	"workshop_form_backend/internal/model"
)

// Notices 收集一次请求内产生的用户提示，实现 retry.Notifier
type Notices struct {
	mu    sync.Mutex
	items []model.Notice
}

func NewNotices() *Notices {
	return &Notices{}
}

func (n *Notices) add(level model.NoticeLevel, msg string) {
	n.mu.Lock()
	n.items = append(n.items, model.Notice{Level: level, Message: msg})
	n.mu.Unlock()
}

func (n *Notices) Success(msg string) { n.add(model.NoticeSuccess, msg) }
func (n *Notices) Info(msg string)    { n.add(model.NoticeInfo, msg) }
func (n *Notices) Warn(msg string)    { n.add(model.NoticeWarning, msg) }
func (n *Notices) Error(msg string)   { n.add(model.NoticeError, msg) }

func (n *Notices) List() []model.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.Notice, len(n.items))
	copy(out, n.items)
	return out
}
