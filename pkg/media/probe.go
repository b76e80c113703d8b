// Package media 封装 ffprobe 和 ffmpeg：读取音频信息、从视频提取音轨
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ccp-p/yt-dictation/pkg/utils"
)

// MediaInfo 存储媒体文件的详细信息
type MediaInfo struct {
	Path       string  // 文件路径
	Name       string  // 文件名
	Format     string  // 文件格式
	Duration   float64 // 时长(秒)
	SampleRate int     // 采样率(Hz)
	Channels   int     // 声道数
	Bitrate    int     // 比特率(kbps)
	Size       int64   // 文件大小(字节)
}

// Runner 执行外部命令并返回标准输出
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Prober 调用 ffprobe 获取媒体信息
type Prober struct {
	Binary string
	Run    Runner
}

// NewProber 创建 ffprobe 探测器
func NewProber() *Prober {
	return &Prober{
		Binary: "ffprobe",
		Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// Available ffprobe 是否可用
func (p *Prober) Available() bool {
	return utils.CheckBinary(p.Binary, "-version")
}

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
}

// GetMediaInfo 获取媒体文件信息
func (p *Prober) GetMediaInfo(ctx context.Context, filePath string) (*MediaInfo, error) {
	output, err := p.Run(ctx, p.Binary,
		"-v", "error",
		"-show_entries", "format=format_name,duration,size,bit_rate:stream=codec_type,sample_rate,channels",
		"-of", "json",
		filePath,
	)
	if err != nil {
		return nil, fmt.Errorf("获取媒体信息失败: %w", err)
	}

	var out probeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return nil, fmt.Errorf("无法解析媒体信息: %w", err)
	}

	info := &MediaInfo{
		Path:   filePath,
		Name:   filepath.Base(filePath),
		Format: strings.TrimPrefix(filepath.Ext(filePath), "."),
	}
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.Duration = d
	}
	// 比特率可能是 N/A
	if b, err := strconv.Atoi(out.Format.BitRate); err == nil {
		info.Bitrate = b / 1000
	}
	if s, err := strconv.ParseInt(out.Format.Size, 10, 64); err == nil {
		info.Size = s
	} else if fi, err := os.Stat(filePath); err == nil {
		info.Size = fi.Size()
	}
	for _, s := range out.Streams {
		if s.CodecType != "audio" {
			continue
		}
		info.SampleRate, _ = strconv.Atoi(s.SampleRate)
		info.Channels = s.Channels
		break
	}

	return info, nil
}

// Duration 返回音频时长（秒）
func (p *Prober) Duration(ctx context.Context, filePath string) (float64, error) {
	info, err := p.GetMediaInfo(ctx, filePath)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}
