// Package youtube 负责解析 YouTube 链接并通过 yt-dlp 下载音频
package youtube

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidURL 无法从链接中解析出视频ID
var ErrInvalidURL = errors.New("invalid YouTube URL")

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	shortPattern   = regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]+)`)
	embedPattern   = regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]+)`)
	legacyPattern  = regexp.MustCompile(`youtube\.com/v/([A-Za-z0-9_-]+)`)
)

// ExtractVideoID 从链接中提取视频ID
// 支持 youtube.com/watch?v=、youtu.be/、youtube.com/embed/、youtube.com/v/
func ExtractVideoID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)

	if strings.Contains(rawURL, "youtube.com/watch") {
		if parsed, err := url.Parse(rawURL); err == nil {
			if id := parsed.Query().Get("v"); ValidVideoID(id) {
				return id, nil
			}
		}
	}

	for _, p := range []*regexp.Regexp{shortPattern, embedPattern, legacyPattern} {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1], nil
		}
	}

	return "", fmt.Errorf("%w: %q，支持的格式: youtube.com/watch?v=...、youtu.be/...", ErrInvalidURL, rawURL)
}

// ValidateURL 链接是否为可识别的 YouTube 视频链接
func ValidateURL(rawURL string) bool {
	_, err := ExtractVideoID(rawURL)
	return err == nil
}

// ValidVideoID 视频ID只能包含字母、数字、下划线和连字符，可以安全地用作文件名
func ValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// WatchURL 返回视频的标准观看链接
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
