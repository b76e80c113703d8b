package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/yt-dictation/internal/store"
	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/ccp-p/yt-dictation/pkg/youtube"
)

const (
	testURL = "https://www.youtube.com/watch?v=7obx1BmOp3M"
	testID  = "7obx1BmOp3M"
	testSRT = "1\n00:00:00,000 --> 00:00:02,500\nHello world\n\n2\n00:00:02,500 --> 00:00:05,000\nSecond line\n"
)

// MockDownloader 模拟 yt-dlp 下载
type MockDownloader struct {
	mock.Mock
	dir string
}

func (m *MockDownloader) Download(ctx context.Context, videoID string) (youtube.DownloadResult, error) {
	args := m.Called(ctx, videoID)
	res, _ := args.Get(0).(youtube.DownloadResult)
	return res, args.Error(1)
}

func (m *MockDownloader) AudioPath(videoID string) string {
	return filepath.Join(m.dir, videoID+".mp3")
}

func (m *MockDownloader) AudioExists(videoID string) bool {
	return utils.CheckFileExists(m.AudioPath(videoID))
}

// MockGenerator 模拟字幕生成
type MockGenerator struct {
	mock.Mock
	dir string
}

func (m *MockGenerator) GenerateSRT(ctx context.Context, videoID string, audioPath string) (string, error) {
	args := m.Called(ctx, videoID, audioPath)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) SRTPath(videoID string) string {
	return filepath.Join(m.dir, videoID+".srt")
}

type recorder struct {
	mu       sync.Mutex
	started  int
	finished []string
	stages   []string
}

func (r *recorder) RunStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *recorder) RunFinished(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, result)
}

func (r *recorder) ObserveStage(stage string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

type fixedProber float64

func (p fixedProber) Duration(context.Context, string) (float64, error) {
	return float64(p), nil
}

type fixture struct {
	dir  string
	dl   *MockDownloader
	gen  *MockGenerator
	st   *store.FileStore
	rec  *recorder
	ctrl *VideoController
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	dir := t.TempDir()
	f := &fixture{
		dir: dir,
		dl:  &MockDownloader{dir: dir},
		gen: &MockGenerator{dir: dir},
		st:  store.NewFileStore(filepath.Join(dir, "cache.json")),
		rec: &recorder{},
	}
	opts = append([]Option{WithRecorder(f.rec)}, opts...)
	f.ctrl = New(f.dl, f.gen, f.st, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		f.ctrl.Shutdown(ctx)
	})
	return f
}

func (f *fixture) writeAudio(t *testing.T) string {
	p := f.dl.AudioPath(testID)
	require.NoError(t, os.WriteFile(p, []byte("mp3"), 0644))
	return p
}

func (f *fixture) writeSRT(t *testing.T) string {
	p := f.gen.SRTPath(testID)
	require.NoError(t, os.WriteFile(p, []byte(testSRT), 0644))
	return p
}

func waitTerminal(t *testing.T, c *VideoController, id string) models.VideoStatus {
	var status models.VideoStatus
	require.Eventually(t, func() bool {
		s, ok := c.Status(id)
		status = s
		return ok && s.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	return status
}

func TestSubmitInvalidURL(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.Submit(context.Background(), "https://vimeo.com/123")
	assert.ErrorIs(t, err, youtube.ErrInvalidURL)
}

func TestSubmitProcessesVideo(t *testing.T) {
	f := newFixture(t, WithProber(fixedProber(5.0)))

	release := make(chan struct{})
	f.dl.On("Download", mock.Anything, testID).
		Run(func(mock.Arguments) {
			<-release
			f.writeAudio(t)
		}).
		Return(youtube.DownloadResult{VideoID: testID, Title: "Test Video", AudioPath: f.dl.AudioPath(testID)}, nil).
		Once()
	f.gen.On("GenerateSRT", mock.Anything, testID, f.dl.AudioPath(testID)).
		Run(func(mock.Arguments) { f.writeSRT(t) }).
		Return(f.gen.SRTPath(testID), nil).
		Once()

	res, err := f.ctrl.Submit(context.Background(), testURL)
	require.NoError(t, err)
	assert.Equal(t, testID, res.VideoID)
	assert.Equal(t, models.StatusProcessing, res.Status)
	assert.NotEmpty(t, res.RunID)

	// 处理中再次提交返回当前状态和同一个 run id
	again, err := f.ctrl.Submit(context.Background(), "https://youtu.be/"+testID)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, again.RunID)
	assert.Contains(t, []models.Status{models.StatusProcessing, models.StatusDownloading}, again.Status)

	close(release)
	status := waitTerminal(t, f.ctrl, testID)
	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.Equal(t, "Test Video", status.Title)
	require.Len(t, status.Segments, 2)
	assert.Equal(t, "Hello world", status.Segments[0].Text)
	assert.Equal(t, 1, status.Segments[1].ID)

	entry, ok := f.st.Get(testID)
	require.True(t, ok)
	assert.Equal(t, 2, entry.SegmentCount)
	assert.Equal(t, 5.0, entry.Duration)
	assert.NotEmpty(t, entry.Timestamp)

	f.dl.AssertExpectations(t)
	f.gen.AssertExpectations(t)
	assert.Equal(t, []string{"completed"}, f.rec.finished)
	assert.Equal(t, []string{"download", "transcribe"}, f.rec.stages)
}

func TestSubmitCachedReturnsCompleted(t *testing.T) {
	f := newFixture(t)
	f.writeAudio(t)
	f.writeSRT(t)
	require.NoError(t, f.st.Put(store.Entry{VideoID: testID, Title: "Cached"}))

	res, err := f.ctrl.Submit(context.Background(), testURL)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, res.Status)
	assert.Empty(t, res.RunID)
	f.dl.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
}

func TestSubmitCachedButFilesMissingReprocesses(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.st.Put(store.Entry{VideoID: testID, Title: "Cached"}))

	f.dl.On("Download", mock.Anything, testID).Return(youtube.DownloadResult{}, errors.New("boom"))

	res, err := f.ctrl.Submit(context.Background(), testURL)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, res.Status)
	waitTerminal(t, f.ctrl, testID)
}

func TestFailureSurfacesMessage(t *testing.T) {
	f := newFixture(t, WithErrorHandler(utils.NewErrorHandler(2, 0.01)))

	f.dl.On("Download", mock.Anything, testID).
		Return(youtube.DownloadResult{}, errors.New("Video unavailable")).
		Twice()

	_, err := f.ctrl.Submit(context.Background(), testURL)
	require.NoError(t, err)

	status := waitTerminal(t, f.ctrl, testID)
	assert.Equal(t, models.StatusError, status.Status)
	assert.Contains(t, status.Error, "Video unavailable")
	assert.Nil(t, status.Segments)
	f.dl.AssertExpectations(t)
	assert.Equal(t, 2, f.ctrl.ErrorStats()["download"]["Video unavailable"])

	// 出错后不会自动重试
	res, err := f.ctrl.Submit(context.Background(), testURL)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, res.Status)
	f.dl.AssertNumberOfCalls(t, "Download", 2)
}

func TestTranscribeFailure(t *testing.T) {
	f := newFixture(t)

	f.dl.On("Download", mock.Anything, testID).
		Return(youtube.DownloadResult{VideoID: testID, Title: "T", AudioPath: f.dl.AudioPath(testID)}, nil)
	f.gen.On("GenerateSRT", mock.Anything, testID, mock.Anything).Return("", errors.New("deepgram 401"))

	_, err := f.ctrl.Submit(context.Background(), testURL)
	require.NoError(t, err)

	status := waitTerminal(t, f.ctrl, testID)
	assert.Equal(t, models.StatusError, status.Status)
	assert.Contains(t, status.Error, "deepgram 401")
	assert.False(t, f.st.Has(testID))
}

func TestStatusFromCache(t *testing.T) {
	f := newFixture(t)

	_, ok := f.ctrl.Status(testID)
	assert.False(t, ok)

	require.NoError(t, f.st.Put(store.Entry{VideoID: testID, Title: "Cached"}))
	status, ok := f.ctrl.Status(testID)
	require.True(t, ok)
	assert.Equal(t, models.StatusError, status.Status)

	f.writeAudio(t)
	f.writeSRT(t)
	status, ok = f.ctrl.Status(testID)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.Equal(t, "Cached", status.Title)
	assert.Len(t, status.Segments, 2)
}

func TestDictation(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.ctrl.Dictation(testID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.st.Put(store.Entry{VideoID: testID, Title: "Cached"}))
	_, _, err = f.ctrl.Dictation(testID)
	assert.ErrorIs(t, err, ErrNotFound)

	f.writeSRT(t)
	entry, segments, err := f.ctrl.Dictation(testID)
	require.NoError(t, err)
	assert.Equal(t, "Cached", entry.Title)
	assert.Len(t, segments, 2)
}

func TestDeleteCancelsRun(t *testing.T) {
	f := newFixture(t)

	f.dl.On("Download", mock.Anything, testID).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(youtube.DownloadResult{}, context.Canceled)

	_, err := f.ctrl.Submit(context.Background(), testURL)
	require.NoError(t, err)

	removed, err := f.ctrl.Delete(testID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, ok := f.ctrl.Status(testID)
	assert.False(t, ok)

	removed, err = f.ctrl.Delete(testID)
	require.NoError(t, err)
	assert.False(t, removed)
}

// blockingStore 在 Put 中途停下，等待测试放行
type blockingStore struct {
	*store.FileStore
	putStarted chan struct{}
	release    chan struct{}
}

func (s *blockingStore) Put(entry store.Entry) error {
	close(s.putStarted)
	<-s.release
	return s.FileStore.Put(entry)
}

func TestDeleteDuringCacheWrite(t *testing.T) {
	dir := t.TempDir()
	dl := &MockDownloader{dir: dir}
	gen := &MockGenerator{dir: dir}
	st := &blockingStore{
		FileStore:  store.NewFileStore(filepath.Join(dir, "cache.json")),
		putStarted: make(chan struct{}),
		release:    make(chan struct{}),
	}
	ctrl := New(dl, gen, st)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ctrl.Shutdown(ctx)
	})

	require.NoError(t, os.WriteFile(dl.AudioPath(testID), []byte("mp3"), 0644))
	require.NoError(t, os.WriteFile(gen.SRTPath(testID), []byte(testSRT), 0644))
	dl.On("Download", mock.Anything, testID).
		Return(youtube.DownloadResult{VideoID: testID, Title: "Test Video", AudioPath: dl.AudioPath(testID)}, nil)
	gen.On("GenerateSRT", mock.Anything, testID, dl.AudioPath(testID)).
		Return(gen.SRTPath(testID), nil)

	_, err := ctrl.Submit(context.Background(), testURL)
	require.NoError(t, err)

	select {
	case <-st.putStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("没有写入缓存")
	}

	deleted := make(chan bool)
	go func() {
		removed, err := ctrl.Delete(testID)
		assert.NoError(t, err)
		deleted <- removed
	}()
	// 让 Delete 有机会在写入完成前执行
	time.Sleep(20 * time.Millisecond)
	close(st.release)

	select {
	case removed := <-deleted:
		assert.True(t, removed)
	case <-time.After(5 * time.Second):
		t.Fatal("Delete 没有返回")
	}

	assert.False(t, st.Has(testID), "删除后的视频不应重新出现在缓存中")
	_, ok := ctrl.Status(testID)
	assert.False(t, ok)
}

func TestShutdownWaitsForRuns(t *testing.T) {
	f := newFixture(t)

	f.dl.On("Download", mock.Anything, testID).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(youtube.DownloadResult{}, context.Canceled)

	_, err := f.ctrl.Submit(context.Background(), testURL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.ctrl.Shutdown(ctx))

	status, ok := f.ctrl.Status(testID)
	require.True(t, ok)
	assert.Equal(t, models.StatusError, status.Status)

	_, err = f.ctrl.Submit(context.Background(), "https://youtu.be/otherVideo1")
	assert.Error(t, err)
}
