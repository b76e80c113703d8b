package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ccp-p/yt-dictation/pkg/youtube"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// MediaFile 表示一个媒体文件
type MediaFile struct {
	Path    string    // 文件路径
	Name    string    // 文件名
	Ext     string    // 文件扩展名
	Size    int64     // 文件大小（字节）
	ModTime time.Time // 修改时间
	IsVideo bool      // 是否为视频文件
	IsAudio bool      // 是否为音频文件
}

// LibraryItem 音频目录中的一个视频，按文件名中的视频ID归组
type LibraryItem struct {
	VideoID   string
	AudioPath string // <id>.mp3，不存在时为空
	SRTPath   string // <id>.srt，不存在时为空
	InfoPath  string // <id>.info.json，不存在时为空
	ModTime   time.Time
}

// Complete 音频和字幕都存在
func (i LibraryItem) Complete() bool {
	return i.AudioPath != "" && i.SRTPath != ""
}

// MediaScanner 用于扫描媒体文件
type MediaScanner struct {
	AudioExtensions []string
	VideoExtensions []string
}

// NewMediaScanner 创建新的媒体扫描器
func NewMediaScanner() *MediaScanner {
	return &MediaScanner{
		AudioExtensions: []string{".mp3", ".wav", ".m4a", ".flac", ".ogg", ".aac", ".webm"},
		VideoExtensions: []string{".mp4", ".mov", ".avi", ".mkv", ".wmv"},
	}
}

// ScanDirectory 扫描指定目录中的媒体文件（不递归，跳过隐藏文件）
func (s *MediaScanner) ScanDirectory(dir string) ([]MediaFile, error) {
	var mediaFiles []MediaFile

	logrus.Infof("开始扫描目录: %s", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		// 跳过目录和隐藏文件
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logrus.Warnf("获取文件信息失败: %v", err)
			continue
		}

		path := filepath.Join(dir, entry.Name())
		ext := strings.ToLower(filepath.Ext(path))
		isAudio := lo.Contains(s.AudioExtensions, ext)
		isVideo := lo.Contains(s.VideoExtensions, ext)

		if isAudio || isVideo {
			mediaFiles = append(mediaFiles, MediaFile{
				Path:    path,
				Name:    entry.Name(),
				Ext:     ext,
				Size:    info.Size(),
				ModTime: info.ModTime(),
				IsVideo: isVideo,
				IsAudio: isAudio,
			})
		}
	}

	logrus.Infof("扫描完成，共找到 %d 个媒体文件", len(mediaFiles))
	return mediaFiles, nil
}

// FilterNewFiles 根据已处理记录过滤出新文件
func (s *MediaScanner) FilterNewFiles(files []MediaFile, processedPaths map[string]bool) []MediaFile {
	newFiles := lo.Reject(files, func(f MediaFile, _ int) bool {
		return processedPaths[f.Path]
	})

	logrus.Infof("过滤后剩余 %d 个新文件需要处理", len(newFiles))
	return newFiles
}

// ScanLibrary 按视频ID归组音频目录中的 mp3/srt/info.json，按ID排序返回
// 文件名不是合法视频ID的文件被忽略
func (s *MediaScanner) ScanLibrary(dir string) ([]LibraryItem, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items := make(map[string]*LibraryItem)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var id, kind string
		switch {
		case strings.HasSuffix(name, ".info.json"):
			id, kind = strings.TrimSuffix(name, ".info.json"), "info"
		case strings.HasSuffix(name, ".mp3"):
			id, kind = strings.TrimSuffix(name, ".mp3"), "audio"
		case strings.HasSuffix(name, ".srt"):
			id, kind = strings.TrimSuffix(name, ".srt"), "srt"
		default:
			continue
		}
		if !youtube.ValidVideoID(id) {
			continue
		}

		item, ok := items[id]
		if !ok {
			item = &LibraryItem{VideoID: id}
			items[id] = item
		}
		path := filepath.Join(dir, name)
		switch kind {
		case "audio":
			item.AudioPath = path
		case "srt":
			item.SRTPath = path
		case "info":
			item.InfoPath = path
		}
		if info, err := entry.Info(); err == nil && info.ModTime().After(item.ModTime) {
			item.ModTime = info.ModTime()
		}
	}

	out := make([]LibraryItem, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VideoID < out[j].VideoID })
	return out, nil
}
