// Package store 维护音频目录下的 cache.json 转写缓存
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ccp-p/yt-dictation/pkg/scanner"
	"github.com/ccp-p/yt-dictation/pkg/srt"
	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/samber/lo"
)

// ErrInvalidEntry 缺少 video_id 或 title
var ErrInvalidEntry = errors.New("缓存条目缺少 video_id 或 title")

// Entry 是 cache.json 中的一条记录
type Entry struct {
	VideoID      string  `json:"video_id"`
	Title        string  `json:"title"`
	AudioPath    string  `json:"audio_path"`
	SRTPath      string  `json:"srt_path"`
	SegmentCount int     `json:"segment_count"`
	Duration     float64 `json:"duration"`
	Timestamp    string  `json:"timestamp"`
}

// FilesExist 音频和字幕文件是否都还在磁盘上
func (e Entry) FilesExist() bool {
	return utils.CheckFileExists(e.AudioPath) && utils.CheckFileExists(e.SRTPath)
}

// FileStore 基于单个 JSON 文件的缓存，进程内并发安全
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore 创建缓存，path 为 cache.json 的完整路径
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path 缓存文件路径
func (s *FileStore) Path() string {
	return s.path
}

// Read 读取全部条目，文件不存在或内容损坏时返回空列表
func (s *FileStore) Read() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) read() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取缓存文件失败: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		utils.WithField("path", s.path).Warnf("缓存文件格式无效，按空缓存处理: %v", err)
		return []Entry{}, nil
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Write 覆盖写入全部条目
func (s *FileStore) Write(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(entries)
}

func (s *FileStore) write(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	if err := utils.SaveJSONFile(s.path, entries); err != nil {
		return fmt.Errorf("写入缓存文件失败: %w", err)
	}
	return nil
}

// Put 新增或替换同 video_id 的条目
func (s *FileStore) Put(entry Entry) error {
	if entry.VideoID == "" || entry.Title == "" {
		return ErrInvalidEntry
	}
	if entry.Timestamp == "" {
		entry.Timestamp = s.now().Format(time.RFC3339)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	if _, idx, ok := lo.FindIndexOf(entries, func(e Entry) bool { return e.VideoID == entry.VideoID }); ok {
		entries[idx] = entry
	} else {
		entries = append(entries, entry)
	}

	utils.WithField("video_id", entry.VideoID).Debug("缓存条目已更新")
	return s.write(entries)
}

// Get 按视频ID查找
func (s *FileStore) Get(videoID string) (Entry, bool) {
	entries, err := s.Read()
	if err != nil {
		utils.Warn("读取缓存失败: %v", err)
		return Entry{}, false
	}
	return lo.Find(entries, func(e Entry) bool { return e.VideoID == videoID })
}

// Has 是否存在该视频的条目
func (s *FileStore) Has(videoID string) bool {
	_, ok := s.Get(videoID)
	return ok
}

// Remove 删除条目，返回是否存在过
func (s *FileStore) Remove(videoID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return false, err
	}
	kept := lo.Reject(entries, func(e Entry, _ int) bool { return e.VideoID == videoID })
	if len(kept) == len(entries) {
		return false, nil
	}
	return true, s.write(kept)
}

// Clear 清空缓存
func (s *FileStore) Clear() error {
	return s.Write([]Entry{})
}

// List 返回全部条目的副本
func (s *FileStore) List() ([]Entry, error) {
	return s.Read()
}

// Reconcile 把磁盘上已有音频和字幕但不在缓存中的视频补登记，返回新增数量
// titleOf 为 nil 时标题取视频ID
func (s *FileStore) Reconcile(items []scanner.LibraryItem, titleOf func(videoID string) string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return 0, err
	}
	known := lo.SliceToMap(entries, func(e Entry) (string, bool) { return e.VideoID, true })

	added := 0
	for _, item := range items {
		if !item.Complete() || known[item.VideoID] {
			continue
		}
		title := item.VideoID
		if titleOf != nil {
			if t := titleOf(item.VideoID); t != "" {
				title = t
			}
		}
		count, err := srt.CountSegments(item.SRTPath)
		if err != nil {
			utils.WithField("video_id", item.VideoID).Warnf("读取字幕失败，跳过: %v", err)
			continue
		}
		entries = append(entries, Entry{
			VideoID:      item.VideoID,
			Title:        title,
			AudioPath:    item.AudioPath,
			SRTPath:      item.SRTPath,
			SegmentCount: count,
			Timestamp:    s.now().Format(time.RFC3339),
		})
		known[item.VideoID] = true
		added++
	}

	if added == 0 {
		return 0, nil
	}
	utils.Info("从音频目录补登记 %d 个视频", added)
	return added, s.write(entries)
}
