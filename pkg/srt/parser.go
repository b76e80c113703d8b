// Package srt 把 SRT 字幕解析为听写句子列表
package srt

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ccp-p/yt-dictation/pkg/models"
)

// 块被丢弃的原因
const (
	ReasonTooShort    = "缺少时间行或文本"
	ReasonBadTiming   = "时间行无法解析"
	ReasonEmptyText   = "文本为空"
	ReasonNonPositive = "结束时间不晚于开始时间"
)

// SkippedBlock 记录一个被丢弃的字幕块
type SkippedBlock struct {
	Ordinal int    // 字幕块在文件中的位置，从 1 开始
	Reason  string // 丢弃原因
	Err     error  // 时间戳错误等底层原因，可能为 nil
}

func (b SkippedBlock) String() string {
	if b.Err != nil {
		return fmt.Sprintf("第 %d 块: %s (%v)", b.Ordinal, b.Reason, b.Err)
	}
	return fmt.Sprintf("第 %d 块: %s", b.Ordinal, b.Reason)
}

var (
	blankLines  = regexp.MustCompile(`\n[ \t\f\v]*\n\s*`)
	timingLine  = regexp.MustCompile(`^\s*(\S+)\s*-->\s*(\S+)(?:\s.*)?$`)
	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Parse 宽松地解析 SRT 内容，坏块被跳过
// 返回的 ID 从 0 连续编号，空输入返回空切片
func Parse(content string) []models.Segment {
	segments, _ := ParseWithReport(content)
	return segments
}

// ParseWithReport 与 Parse 相同，同时返回被跳过的块
func ParseWithReport(content string) ([]models.Segment, []SkippedBlock) {
	segments := make([]models.Segment, 0)
	var skipped []SkippedBlock

	content = strings.TrimSpace(lineEndings.Replace(content))
	if content == "" {
		return segments, nil
	}

	for i, block := range blankLines.Split(content, -1) {
		seg, skip := parseBlock(block)
		if skip != nil {
			skip.Ordinal = i + 1
			skipped = append(skipped, *skip)
			continue
		}
		seg.ID = len(segments)
		segments = append(segments, seg)
	}

	return segments, skipped
}

func parseBlock(block string) (models.Segment, *SkippedBlock) {
	lines := strings.Split(strings.TrimSpace(block), "\n")

	// 第一行就是时间行时视为没有序号行
	if !strings.Contains(lines[0], "-->") {
		lines = lines[1:]
	}
	if len(lines) < 2 {
		return models.Segment{}, &SkippedBlock{Reason: ReasonTooShort}
	}

	m := timingLine.FindStringSubmatch(lines[0])
	if m == nil {
		return models.Segment{}, &SkippedBlock{Reason: ReasonBadTiming}
	}
	start, err := ParseTimestamp(m[1])
	if err != nil {
		return models.Segment{}, &SkippedBlock{Reason: ReasonBadTiming, Err: err}
	}
	end, err := ParseTimestamp(m[2])
	if err != nil {
		return models.Segment{}, &SkippedBlock{Reason: ReasonBadTiming, Err: err}
	}

	text := joinText(lines[1:])
	if text == "" {
		return models.Segment{}, &SkippedBlock{Reason: ReasonEmptyText}
	}
	if end <= start {
		return models.Segment{}, &SkippedBlock{Reason: ReasonNonPositive}
	}

	return models.Segment{Start: start, End: end, Text: text}, nil
}

func joinText(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " ")
}

// ParseFile 读取并解析 SRT 文件，只返回读取错误
func ParseFile(path string) ([]models.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字幕文件失败: %w", err)
	}
	return Parse(string(data)), nil
}

// CountSegments 返回字幕文件中有效句子的数量
func CountSegments(path string) (int, error) {
	segments, err := ParseFile(path)
	if err != nil {
		return 0, err
	}
	return len(segments), nil
}
