package configwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"workshop_form_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLabels(t *testing.T, dir string, labels ...string) {
	t.Helper()
	body := "sheets:\n  backend: mysql\nform:\n  question_labels:\n"
	for _, l := range labels {
		body += fmt.Sprintf("    - %q\n", l)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
}

func TestWatchConfigReloadsLabels(t *testing.T) {
	dir := t.TempDir()
	writeLabels(t, dir, "before")

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan *config.Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, dir, func(cfg *config.Config) {
			reloaded <- cfg
		})
	}()

	time.Sleep(200 * time.Millisecond)
	writeLabels(t, dir, "after")

	deadline := time.After(15 * time.Second)
	// 间隔大于防抖时间，避免计时器被不断重置
	tick := time.NewTicker(3 * time.Second)
	defer tick.Stop()

	var got *config.Config
	for got == nil {
		select {
		case got = <-reloaded:
		case <-tick.C:
			// 监听建立前的写入会丢失
			writeLabels(t, dir, "after")
		case <-deadline:
			t.Fatal("config was not reloaded")
		}
	}
	assert.Equal(t, []string{"after"}, got.Form.QuestionLabels)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
