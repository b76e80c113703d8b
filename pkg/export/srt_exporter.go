package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/srt"
	"github.com/ccp-p/yt-dictation/pkg/utils"
)

// FallbackCueDuration 结束时间不晚于开始时间时使用的时长（秒）
const FallbackCueDuration = 1.0

// SRTExporter 负责将ASR结果导出为SRT字幕文件
type SRTExporter struct {
	OutputFolder string
}

// NewSRTExporter 创建一个新的SRT导出器
func NewSRTExporter(outputFolder string) *SRTExporter {
	return &SRTExporter{
		OutputFolder: outputFolder,
	}
}

// FormatSRTTime 将秒数格式化为SRT时间格式 (HH:MM:SS,mmm)，四舍五入到毫秒
func (e *SRTExporter) FormatSRTTime(seconds float64) string {
	return srt.FormatTimestamp(seconds)
}

// GenerateSRTContent 生成SRT格式内容，序号从1连续编号
func (e *SRTExporter) GenerateSRTContent(segments []models.DataSegment) string {
	var b strings.Builder
	n := 0

	for _, segment := range segments {
		text := strings.Join(strings.Fields(segment.Text), " ")
		if text == "" {
			continue
		}

		startTime := segment.StartTime
		if startTime < 0 {
			startTime = 0
		}
		endTime := segment.EndTime
		if endTime <= startTime {
			endTime = startTime + FallbackCueDuration
		}

		n++
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", n, e.FormatSRTTime(startTime), e.FormatSRTTime(endTime), text)
	}

	return b.String()
}

// SRTPath 返回视频对应的字幕路径
func (e *SRTExporter) SRTPath(videoID string) string {
	return filepath.Join(e.OutputFolder, videoID+".srt")
}

// ExportSRT 导出SRT格式字幕文件 <OutputFolder>/<videoID>.srt
func (e *SRTExporter) ExportSRT(segments []models.DataSegment, videoID string) (string, error) {
	if err := os.MkdirAll(e.OutputFolder, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	outputFile := e.SRTPath(videoID)
	tmpFile := outputFile + ".part"

	// 先写临时文件，避免其他请求读到半个字幕
	if err := os.WriteFile(tmpFile, []byte(e.GenerateSRTContent(segments)), 0644); err != nil {
		return "", fmt.Errorf("写入SRT文件失败: %w", err)
	}
	if err := os.Rename(tmpFile, outputFile); err != nil {
		os.Remove(tmpFile)
		return "", fmt.Errorf("写入SRT文件失败: %w", err)
	}

	utils.Info("已导出SRT字幕: %s", outputFile)
	return outputFile, nil
}
