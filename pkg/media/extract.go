package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ccp-p/yt-dictation/pkg/utils"
)

// Extractor 用 ffmpeg 从视频文件提取 mp3 音轨
type Extractor struct {
	Binary string
	Run    Runner
}

// NewExtractor 创建音频提取器
func NewExtractor() *Extractor {
	return &Extractor{
		Binary: "ffmpeg",
		Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// Available ffmpeg 是否可用
func (e *Extractor) Available() bool {
	return utils.CheckBinary(e.Binary, "-version")
}

// ExtractAudio 把 videoPath 的音轨写到 outputDir/<同名>.mp3
// 目标已存在时直接返回，created 为 false
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath, outputDir string) (audioPath string, created bool, err error) {
	base := filepath.Base(videoPath)
	audioPath = filepath.Join(outputDir, strings.TrimSuffix(base, filepath.Ext(base))+".mp3")

	if utils.CheckFileExists(audioPath) {
		utils.Info("音频已存在: %s", audioPath)
		return audioPath, false, nil
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", false, fmt.Errorf("创建输出目录失败: %w", err)
	}

	utils.Info("正在从视频提取音频: %s", base)
	out, err := e.Run(ctx, e.Binary,
		"-i", videoPath,
		"-vn",
		"-q:a", "0",
		"-map", "a",
		"-y",
		audioPath,
	)
	if err != nil {
		os.Remove(audioPath)
		return "", false, fmt.Errorf("音频提取失败: %w, 输出: %s", err, strings.TrimSpace(string(out)))
	}
	if !utils.CheckFileExists(audioPath) {
		return "", false, fmt.Errorf("提取的音频文件不存在: %s", audioPath)
	}

	utils.Info("音频提取成功: %s", audioPath)
	return audioPath, true, nil
}
