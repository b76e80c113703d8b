package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/utils"
)

// TranscriptResult 表示整个转录结果
type TranscriptResult struct {
	VideoID  string           `json:"video_id"`
	Title    string           `json:"title,omitempty"`
	Language string           `json:"language,omitempty"` // 识别语言
	FullText string           `json:"full_text"`          // 完整合并后的文本
	Segments []models.Segment `json:"segments"`           // 听写句子
}

// JSONExporter 负责将听写句子导出为JSON文件
type JSONExporter struct {
	OutputFolder string
}

// NewJSONExporter 创建一个新的JSON导出器
func NewJSONExporter(outputFolder string) *JSONExporter {
	return &JSONExporter{
		OutputFolder: outputFolder,
	}
}

// GenerateJSONContent 根据句子生成TranscriptResult结构
func (e *JSONExporter) GenerateJSONContent(videoID, title, language string, segments []models.Segment) TranscriptResult {
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}
	if segments == nil {
		segments = []models.Segment{}
	}

	return TranscriptResult{
		VideoID:  videoID,
		Title:    title,
		Language: language,
		FullText: strings.Join(texts, " "),
		Segments: segments,
	}
}

// ExportJSON 导出 <OutputFolder>/<videoID>.json
func (e *JSONExporter) ExportJSON(videoID, title, language string, segments []models.Segment) (string, error) {
	outputFile := filepath.Join(e.OutputFolder, videoID+".json")
	result := e.GenerateJSONContent(videoID, title, language, segments)

	if err := utils.SaveJSONFile(outputFile, result); err != nil {
		return "", fmt.Errorf("写入JSON文件失败: %w", err)
	}

	utils.Info("已导出JSON: %s", outputFile)
	return outputFile, nil
}
