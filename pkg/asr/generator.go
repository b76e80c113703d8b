package asr

import (
	"context"
	"fmt"
	"time"

	"github.com/ccp-p/yt-dictation/pkg/export"
	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/utils"
)

// NewSelectorFromConfig 按配置注册可用的识别服务，缺少密钥的服务不注册
func NewSelectorFromConfig(config *models.Config) *ASRSelector {
	selector := NewASRSelector()
	cacheDir := config.ResolvedASRCacheDir()

	if config.DeepgramAPIKey != "" {
		selector.RegisterService(models.ASRServiceDeepgram, func(audioPath string, useCache bool) (ASRService, error) {
			return NewDeepgramASR(audioPath, useCache, cacheDir, config.DeepgramAPIKey,
				WithDeepgramModel(config.DeepgramModel),
				WithDeepgramLanguage(config.DeepgramLanguage),
				WithCaptionLineLength(config.CaptionLineLength),
			)
		}, 2)
	}
	if config.OpenAIAPIKey != "" {
		selector.RegisterService(models.ASRServiceOpenAI, func(audioPath string, useCache bool) (ASRService, error) {
			return NewOpenAIASR(audioPath, useCache, cacheDir, config.OpenAIAPIKey, config.OpenAIModel, config.DeepgramLanguage, "")
		}, 1)
	}
	return selector
}

// SRTGenerator 把音频转写为 <audio_dir>/<id>.srt
type SRTGenerator struct {
	Selector *ASRSelector
	Exporter *export.SRTExporter
	Service  string // deepgram / openai / auto
	UseCache bool
	Progress ProgressCallback
}

// NewSRTGenerator 创建字幕生成器
func NewSRTGenerator(config *models.Config, selector *ASRSelector) *SRTGenerator {
	return &SRTGenerator{
		Selector: selector,
		Exporter: export.NewSRTExporter(config.AudioDir),
		Service:  config.ASRService,
		UseCache: config.UseASRCache,
	}
}

// GenerateSRT 生成字幕文件并返回路径，已有字幕直接复用
func (g *SRTGenerator) GenerateSRT(ctx context.Context, videoID string, audioPath string) (string, error) {
	srtPath := g.Exporter.SRTPath(videoID)
	if utils.CheckFileExists(srtPath) {
		utils.Info("字幕已存在，跳过识别: %s", srtPath)
		return srtPath, nil
	}

	start := time.Now()
	segments, service, err := g.Selector.RunWithService(ctx, audioPath, g.Service, g.UseCache, g.Progress)
	if err != nil {
		return "", fmt.Errorf("语音识别失败: %w", err)
	}

	utils.WithFields(map[string]interface{}{
		"video_id": videoID,
		"service":  service,
		"segments": len(segments),
	}).Infof("语音识别完成，用时 %s", utils.FormatTimeDuration(time.Since(start).Seconds()))

	return g.Exporter.ExportSRT(segments, videoID)
}

// SRTPath 返回视频字幕文件路径
func (g *SRTGenerator) SRTPath(videoID string) string {
	return g.Exporter.SRTPath(videoID)
}
