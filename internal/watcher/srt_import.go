// Package watcher 监控音频目录，把手工放入的字幕登记到缓存
package watcher

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/ccp-p/yt-dictation/internal/store"
	"github.com/ccp-p/yt-dictation/pkg/srt"
	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/ccp-p/yt-dictation/pkg/youtube"
)

// DefaultDebounce 字幕写入完成后等待的时间
const DefaultDebounce = 2 * time.Second

// EntryStore 登记字幕需要的缓存操作
type EntryStore interface {
	Put(entry store.Entry) error
	Get(videoID string) (store.Entry, bool)
}

// SRTImportHandler 把 <id>.srt 登记为缓存条目
type SRTImportHandler struct {
	store   EntryStore
	titleOf func(videoID string) string
}

// NewSRTImportHandler 创建字幕导入处理器，titleOf 为 nil 时标题取视频ID
func NewSRTImportHandler(st EntryStore, titleOf func(videoID string) string) *SRTImportHandler {
	return &SRTImportHandler{store: st, titleOf: titleOf}
}

// OnFileCreated 解析字幕并更新缓存
func (h *SRTImportHandler) OnFileCreated(filePath string) {
	videoID := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	log := utils.WithField("video_id", videoID)
	if !youtube.ValidVideoID(videoID) {
		log.Warnf("文件名不是有效的视频ID，忽略: %s", filePath)
		return
	}

	count, err := srt.CountSegments(filePath)
	if err != nil {
		log.Errorf("读取字幕失败: %v", err)
		return
	}

	entry, existed := h.store.Get(videoID)
	if !existed {
		entry = store.Entry{
			VideoID:   videoID,
			AudioPath: filepath.Join(filepath.Dir(filePath), videoID+".mp3"),
		}
	}
	if entry.Title == "" {
		entry.Title = videoID
		if h.titleOf != nil {
			if t := h.titleOf(videoID); t != "" {
				entry.Title = t
			}
		}
	}
	entry.SRTPath = filePath
	entry.SegmentCount = count
	entry.Timestamp = ""

	if err := h.store.Put(entry); err != nil {
		log.Errorf("登记字幕失败: %v", err)
		return
	}
	log.Infof("已导入字幕，共 %d 句", count)
}

// OnFileDeleted 字幕被删除时只记录日志，状态查询会发现文件缺失
func (h *SRTImportHandler) OnFileDeleted(filePath string) {
	utils.Warn("字幕文件已删除: %s", filePath)
}

// StartSRTImport 开始监控音频目录中的字幕文件，返回停止函数
func StartSRTImport(audioDir string, st EntryStore, titleOf func(videoID string) string, debounce time.Duration) (func(), error) {
	handler := NewSRTImportHandler(st, titleOf)
	monitor, err := NewFolderMonitor(audioDir, []string{".srt"}, handler, debounce)
	if err != nil {
		return nil, err
	}
	if err := monitor.Start(); err != nil {
		return nil, err
	}
	return monitor.Stop, nil
}
