package service

import (
	"fmt"
	"sync"

	"workshop_form_backend/internal/util"
)

// QuestionCatalog 有序的问题标签列表，标签位置决定答案所在列
type QuestionCatalog struct {
	mu     sync.RWMutex
	labels []string
}

func NewQuestionCatalog(labels []string) *QuestionCatalog {
	cp := make([]string, len(labels))
	copy(cp, labels)
	return &QuestionCatalog{labels: cp}
}

// Replace 热更新标签列表；已有标签必须原样保留在开头，只允许在末尾追加
func (c *QuestionCatalog) Replace(labels []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(labels) < len(c.labels) {
		return fmt.Errorf("%w: %d labels would shrink to %d", util.ErrLabelsReordered, len(c.labels), len(labels))
	}
	for i, l := range c.labels {
		if labels[i] != l {
			return fmt.Errorf("%w: column %d %q became %q", util.ErrLabelsReordered, Column(i+1), l, labels[i])
		}
	}

	cp := make([]string, len(labels))
	copy(cp, labels)
	c.labels = cp
	return nil
}

func (c *QuestionCatalog) Labels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Index 返回标签从 1 开始的位置
func (c *QuestionCatalog) Index(label string) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, l := range c.labels {
		if l == label {
			return i + 1, nil
		}
	}
	return 0, util.ErrUnknownQuestion
}

// Column 答案表中的列号，第 1 列是用户名
func Column(questionIndex int) int {
	return questionIndex + 1
}
