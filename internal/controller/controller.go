// Package controller 协调下载、转写和缓存，维护每个视频的处理状态
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ccp-p/yt-dictation/internal/store"
	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/srt"
	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/ccp-p/yt-dictation/pkg/youtube"
)

// ErrNotFound 视频未处理过或字幕缺失
var ErrNotFound = errors.New("视频不存在")

// Downloader 下载视频音频
type Downloader interface {
	Download(ctx context.Context, videoID string) (youtube.DownloadResult, error)
	AudioExists(videoID string) bool
	AudioPath(videoID string) string
}

// SRTGenerator 生成字幕文件
type SRTGenerator interface {
	GenerateSRT(ctx context.Context, videoID string, audioPath string) (string, error)
	SRTPath(videoID string) string
}

// Store 转写缓存
type Store interface {
	Put(entry store.Entry) error
	Get(videoID string) (store.Entry, bool)
	Remove(videoID string) (bool, error)
	List() ([]store.Entry, error)
}

// DurationProber 读取音频时长
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Recorder 处理流程指标
type Recorder interface {
	RunStarted()
	RunFinished(result string)
	ObserveStage(stage string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RunStarted() {}

func (nopRecorder) RunFinished(string) {}

func (nopRecorder) ObserveStage(string, time.Duration) {}

// SubmitResult 提交处理请求的返回
type SubmitResult struct {
	VideoID string        `json:"video_id"`
	Status  models.Status `json:"status"`
	RunID   string        `json:"run_id,omitempty"`
}

// run 一次后台处理
type run struct {
	id      string
	videoID string
	status  models.VideoStatus
	cancel  context.CancelFunc
}

// Option 配置 VideoController
type Option func(*VideoController)

// WithProber 设置时长探测器，未设置时不记录时长
func WithProber(p DurationProber) Option {
	return func(c *VideoController) { c.prober = p }
}

// WithRecorder 设置指标记录器
func WithRecorder(r Recorder) Option {
	return func(c *VideoController) { c.metrics = r }
}

// WithErrorHandler 设置下载和转写的重试策略
func WithErrorHandler(h *utils.ErrorHandler) Option {
	return func(c *VideoController) { c.retry = h }
}

// VideoController 视频处理控制器
type VideoController struct {
	downloader Downloader
	generator  SRTGenerator
	store      Store
	prober     DurationProber
	metrics    Recorder
	retry      *utils.ErrorHandler
	newID      func() string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	runs map[string]*run
}

// New 创建控制器
func New(downloader Downloader, generator SRTGenerator, st Store, opts ...Option) *VideoController {
	ctx, cancel := context.WithCancel(context.Background())
	c := &VideoController{
		downloader: downloader,
		generator:  generator,
		store:      st,
		metrics:    nopRecorder{},
		retry:      utils.NewErrorHandler(1, 0),
		newID:      func() string { return uuid.New().String() },
		ctx:        ctx,
		cancel:     cancel,
		runs:       make(map[string]*run),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit 提交一个 YouTube 链接，已缓存的直接返回 completed
func (c *VideoController) Submit(ctx context.Context, youtubeURL string) (SubmitResult, error) {
	videoID, err := youtube.ExtractVideoID(youtubeURL)
	if err != nil {
		return SubmitResult{}, err
	}

	if c.cachedOnDisk(videoID) {
		return SubmitResult{VideoID: videoID, Status: models.StatusCompleted}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx.Err() != nil {
		return SubmitResult{}, errors.New("服务正在关闭")
	}
	if r, ok := c.runs[videoID]; ok {
		return SubmitResult{VideoID: videoID, Status: r.status.Status, RunID: r.id}, nil
	}

	runCtx, cancel := context.WithCancel(c.ctx)
	r := &run{
		id:      c.newID(),
		videoID: videoID,
		status:  models.VideoStatus{Status: models.StatusProcessing},
		cancel:  cancel,
	}
	c.runs[videoID] = r

	c.wg.Add(1)
	go c.process(runCtx, r)

	utils.WithFields(logrus.Fields{"video_id": videoID, "run_id": r.id}).Info("开始处理视频")
	return SubmitResult{VideoID: videoID, Status: models.StatusProcessing, RunID: r.id}, nil
}

// cachedOnDisk 缓存中有记录且音频和字幕都在
func (c *VideoController) cachedOnDisk(videoID string) bool {
	if _, ok := c.store.Get(videoID); !ok {
		return false
	}
	return c.downloader.AudioExists(videoID) && utils.CheckFileExists(c.generator.SRTPath(videoID))
}

// process 后台执行下载和转写
func (c *VideoController) process(ctx context.Context, r *run) {
	defer c.wg.Done()
	defer r.cancel()

	c.metrics.RunStarted()
	log := utils.WithFields(logrus.Fields{"video_id": r.videoID, "run_id": r.id})

	c.setStatus(r, models.VideoStatus{Status: models.StatusDownloading})
	start := time.Now()
	var audio youtube.DownloadResult
	err := c.retry.RetryContext(ctx, "download", func(ctx context.Context) error {
		var err error
		audio, err = c.downloader.Download(ctx, r.videoID)
		return err
	})
	c.metrics.ObserveStage("download", time.Since(start))
	if err != nil {
		c.fail(r, log, "download", err)
		return
	}
	log.WithField("stage", "download").Infof("音频就绪: %s", audio.AudioPath)

	c.setStatus(r, models.VideoStatus{Status: models.StatusTranscribing, Title: audio.Title})
	start = time.Now()
	var srtPath string
	err = c.retry.RetryContext(ctx, "transcribe", func(ctx context.Context) error {
		var err error
		srtPath, err = c.generator.GenerateSRT(ctx, r.videoID, audio.AudioPath)
		return err
	})
	c.metrics.ObserveStage("transcribe", time.Since(start))
	if err != nil {
		c.fail(r, log, "transcribe", err)
		return
	}

	segments, err := srt.ParseFile(srtPath)
	if err != nil {
		c.fail(r, log, "parse", err)
		return
	}

	var duration float64
	if c.prober != nil {
		if d, err := c.prober.Duration(ctx, audio.AudioPath); err != nil {
			log.Warnf("获取音频时长失败: %v", err)
		} else {
			duration = d
		}
	}

	if ctx.Err() != nil {
		c.fail(r, log, "cache", ctx.Err())
		return
	}
	err = c.commit(r, store.Entry{
		VideoID:      r.videoID,
		Title:        audio.Title,
		AudioPath:    audio.AudioPath,
		SRTPath:      srtPath,
		SegmentCount: len(segments),
		Duration:     duration,
	}, models.VideoStatus{Status: models.StatusCompleted, Title: audio.Title, Segments: segments})
	if errors.Is(err, errRunRemoved) {
		c.metrics.RunFinished("removed")
		log.Info("处理记录已删除，不写入缓存")
		return
	}
	if err != nil {
		c.fail(r, log, "cache", err)
		return
	}

	c.metrics.RunFinished(string(models.StatusCompleted))
	log.Infof("处理完成，共 %d 句", len(segments))
}

var errRunRemoved = errors.New("处理记录已删除")

// commit 写入缓存并标记完成。持有 c.mu 完成检查和写入，
// Delete 要么在写入前移除记录（不写入），要么在写入后删除条目
func (c *VideoController) commit(r *run, entry store.Entry, status models.VideoStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.runs[r.videoID] != r {
		return errRunRemoved
	}
	if err := c.store.Put(entry); err != nil {
		return err
	}
	r.status = status
	return nil
}

func (c *VideoController) fail(r *run, log *logrus.Entry, stage string, err error) {
	c.setStatus(r, models.VideoStatus{Status: models.StatusError, Error: err.Error()})
	c.metrics.RunFinished(string(models.StatusError))
	log.WithField("stage", stage).Errorf("处理失败: %v", err)
}

// setStatus 只更新仍然登记着的那次处理，已删除的不会被恢复
func (c *VideoController) setStatus(r *run, status models.VideoStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runs[r.videoID] == r {
		r.status = status
	}
}

// Status 查询处理状态，先看内存中的处理记录再看缓存
func (c *VideoController) Status(videoID string) (models.VideoStatus, bool) {
	c.mu.Lock()
	r, ok := c.runs[videoID]
	var status models.VideoStatus
	if ok {
		status = r.status
	}
	c.mu.Unlock()
	if ok {
		return status, true
	}

	entry, ok := c.store.Get(videoID)
	if !ok {
		return models.VideoStatus{}, false
	}
	srtPath := c.generator.SRTPath(videoID)
	if !c.downloader.AudioExists(videoID) || !utils.CheckFileExists(srtPath) {
		return models.VideoStatus{Status: models.StatusError, Error: "音频或字幕文件已丢失"}, true
	}
	segments, err := srt.ParseFile(srtPath)
	if err != nil {
		return models.VideoStatus{Status: models.StatusError, Error: err.Error()}, true
	}
	return models.VideoStatus{Status: models.StatusCompleted, Title: entry.Title, Segments: segments}, true
}

// Dictation 返回听写页面需要的缓存条目和句子
func (c *VideoController) Dictation(videoID string) (store.Entry, []models.Segment, error) {
	entry, ok := c.store.Get(videoID)
	if !ok {
		return store.Entry{}, nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}
	srtPath := c.generator.SRTPath(videoID)
	if !utils.CheckFileExists(srtPath) {
		return store.Entry{}, nil, fmt.Errorf("%w: %s 的字幕文件不存在", ErrNotFound, videoID)
	}
	segments, err := srt.ParseFile(srtPath)
	if err != nil {
		return store.Entry{}, nil, err
	}
	return entry, segments, nil
}

// List 列出所有缓存的视频
func (c *VideoController) List() ([]store.Entry, error) {
	return c.store.List()
}

// Delete 删除缓存条目和内存中的处理记录，正在进行的处理会被取消
func (c *VideoController) Delete(videoID string) (bool, error) {
	c.mu.Lock()
	r, hadRun := c.runs[videoID]
	if hadRun {
		r.cancel()
		delete(c.runs, videoID)
	}
	c.mu.Unlock()

	removed, err := c.store.Remove(videoID)
	if err != nil {
		return hadRun, err
	}
	if removed || hadRun {
		utils.WithField("video_id", videoID).Info("已删除视频记录")
	}
	return removed || hadRun, nil
}

// ErrorStats 下载和转写的错误统计
func (c *VideoController) ErrorStats() map[string]map[string]int {
	return c.retry.GetErrorStats()
}

// Shutdown 取消所有处理并等待退出
func (c *VideoController) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.cancel()
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
