package utils

import (
	"context"
	"os/exec"
	"time"
)

// CheckBinary 检查外部命令是否可用（yt-dlp、ffprobe、ffplay 等）
// versionArg 为空时只检查 PATH
func CheckBinary(name string, versionArg string) bool {
	path, err := exec.LookPath(name)
	if err != nil {
		return false
	}
	if versionArg == "" {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, path, versionArg).Run() == nil
}

// CheckFFmpeg 检查 ffmpeg 是否可用，yt-dlp 提取音频依赖它
func CheckFFmpeg() bool {
	return CheckBinary("ffmpeg", "-version")
}
