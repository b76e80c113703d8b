package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/yt-dictation/internal/store"
)

const sampleSRT = "1\n00:00:00,000 --> 00:00:01,000\nHello\n\n2\n00:00:01,000 --> 00:00:02,000\nWorld\n"

type recordingHandler struct {
	mu      sync.Mutex
	created []string
	deleted []string
}

func (h *recordingHandler) OnFileCreated(p string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.created = append(h.created, p)
}

func (h *recordingHandler) OnFileDeleted(p string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, p)
}

func (h *recordingHandler) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.created), len(h.deleted)
}

func TestFolderMonitorDebounce(t *testing.T) {
	dir := t.TempDir()
	handler := &recordingHandler{}

	monitor, err := NewFolderMonitor(dir, []string{".srt"}, handler, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("创建监控器失败: %v", err)
	}
	if err := monitor.Start(); err != nil {
		t.Fatalf("启动监控失败: %v", err)
	}
	defer monitor.Stop()

	target := filepath.Join(dir, "abc.srt")
	f, err := os.Create(target)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.WriteString(sampleSRT)
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	// 非目标扩展名不触发
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.mp3"), []byte("x"), 0644))

	require.Eventually(t, func() bool {
		created, _ := handler.counts()
		return created == 1
	}, 3*time.Second, 20*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	created, _ := handler.counts()
	if created != 1 {
		t.Errorf("连续写入应合并为一次处理，实际 %d 次", created)
	}

	require.NoError(t, os.Remove(target))
	require.Eventually(t, func() bool {
		_, deleted := handler.counts()
		return deleted == 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	monitor, err := NewFolderMonitor(t.TempDir(), []string{".srt"}, nil, time.Second)
	require.NoError(t, err)
	require.NoError(t, monitor.Start())
	monitor.Stop()
	monitor.Stop()
}

func TestSRTImportHandler(t *testing.T) {
	dir := t.TempDir()
	st := store.NewFileStore(filepath.Join(dir, "cache.json"))
	handler := NewSRTImportHandler(st, func(id string) string { return "Title of " + id })

	path := filepath.Join(dir, "7obx1BmOp3M.srt")
	require.NoError(t, os.WriteFile(path, []byte(sampleSRT), 0644))
	handler.OnFileCreated(path)

	entry, ok := st.Get("7obx1BmOp3M")
	require.True(t, ok)
	assert.Equal(t, "Title of 7obx1BmOp3M", entry.Title)
	assert.Equal(t, 2, entry.SegmentCount)
	assert.Equal(t, path, entry.SRTPath)
	assert.Equal(t, filepath.Join(dir, "7obx1BmOp3M.mp3"), entry.AudioPath)

	// 已有条目保留标题，更新句子数
	require.NoError(t, os.WriteFile(path, []byte("1\n00:00:00,000 --> 00:00:01,000\nOnly\n"), 0644))
	handler.OnFileCreated(path)
	entry, _ = st.Get("7obx1BmOp3M")
	assert.Equal(t, "Title of 7obx1BmOp3M", entry.Title)
	assert.Equal(t, 1, entry.SegmentCount)

	// 非法文件名被忽略
	bad := filepath.Join(dir, "bad name.srt")
	require.NoError(t, os.WriteFile(bad, []byte(sampleSRT), 0644))
	handler.OnFileCreated(bad)
	list, err := st.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStartSRTImport(t *testing.T) {
	dir := t.TempDir()
	st := store.NewFileStore(filepath.Join(dir, "cache.json"))

	stop, err := StartSRTImport(dir, st, nil, 50*time.Millisecond)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dQw4w9WgXcQ.srt"), []byte(sampleSRT), 0644))

	require.Eventually(t, func() bool {
		e, ok := st.Get("dQw4w9WgXcQ")
		return ok && e.Title == "dQw4w9WgXcQ" && e.SegmentCount == 2
	}, 3*time.Second, 20*time.Millisecond)
}
