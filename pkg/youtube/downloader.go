package youtube

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ccp-p/yt-dictation/pkg/utils"
)

// CommandRunner 执行外部命令并返回合并输出
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// DownloadResult 下载结果
type DownloadResult struct {
	VideoID   string
	Title     string
	AudioPath string
	Reused    bool // 音频已存在，未重新下载
}

// Downloader 封装 yt-dlp，把最佳音轨转成 mp3 存入 AudioDir
type Downloader struct {
	Binary   string // yt-dlp 可执行文件
	AudioDir string
	Quality  string // mp3 码率
	Run      CommandRunner
}

// NewDownloader 创建下载器
func NewDownloader(binary, audioDir, quality string) *Downloader {
	if binary == "" {
		binary = "yt-dlp"
	}
	if quality == "" {
		quality = "192"
	}
	return &Downloader{
		Binary:   binary,
		AudioDir: audioDir,
		Quality:  quality,
		Run:      execRunner,
	}
}

// AudioPath 返回视频音频的路径
func (d *Downloader) AudioPath(videoID string) string {
	return filepath.Join(d.AudioDir, videoID+".mp3")
}

// InfoPath 返回 yt-dlp 写出的元数据文件路径
func (d *Downloader) InfoPath(videoID string) string {
	return filepath.Join(d.AudioDir, videoID+".info.json")
}

// AudioExists 音频是否已下载
func (d *Downloader) AudioExists(videoID string) bool {
	return utils.CheckFileExists(d.AudioPath(videoID))
}

// CheckBinary 检查 yt-dlp 是否可用
func (d *Downloader) CheckBinary() error {
	if !utils.CheckBinary(d.Binary, "--version") {
		return fmt.Errorf("未找到可用的 yt-dlp: %s", d.Binary)
	}
	return nil
}

// Title 从元数据文件读取标题，读取失败时返回视频ID
func (d *Downloader) Title(videoID string) string {
	var info struct {
		Title string `json:"title"`
	}
	found, err := utils.LoadJSONFile(d.InfoPath(videoID), &info)
	if err != nil || !found || strings.TrimSpace(info.Title) == "" {
		return videoID
	}
	return info.Title
}

// BuildArgs 构造 yt-dlp 参数
func (d *Downloader) BuildArgs(videoID string) []string {
	return []string{
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", d.Quality + "K",
		"--write-info-json",
		"--no-playlist",
		"--no-progress",
		"-o", filepath.Join(d.AudioDir, videoID+".%(ext)s"),
		WatchURL(videoID),
	}
}

// Download 下载音频，已存在时直接复用
func (d *Downloader) Download(ctx context.Context, videoID string) (DownloadResult, error) {
	if !ValidVideoID(videoID) {
		return DownloadResult{}, fmt.Errorf("%w: 视频ID %q", ErrInvalidURL, videoID)
	}

	result := DownloadResult{VideoID: videoID, AudioPath: d.AudioPath(videoID)}
	if d.AudioExists(videoID) {
		utils.Info("音频已存在: %s", result.AudioPath)
		result.Title = d.Title(videoID)
		result.Reused = true
		return result, nil
	}

	if err := os.MkdirAll(d.AudioDir, 0755); err != nil {
		return DownloadResult{}, fmt.Errorf("创建音频目录失败: %w", err)
	}

	start := time.Now()
	utils.Info("开始下载: %s", WatchURL(videoID))

	out, err := d.Run(ctx, d.Binary, d.BuildArgs(videoID)...)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("yt-dlp 下载失败: %w, 输出: %s", err, lastLines(string(out), 5))
	}
	if !d.AudioExists(videoID) {
		return DownloadResult{}, fmt.Errorf("yt-dlp 未生成音频文件: %s", result.AudioPath)
	}

	result.Title = d.Title(videoID)
	utils.Info("音频下载完成: %s (%s)，用时 %s", result.AudioPath, result.Title,
		utils.FormatTimeDuration(time.Since(start).Seconds()))
	return result, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
