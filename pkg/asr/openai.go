package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/utils"
)

// OpenAIEndpoint 音频转写接口
const OpenAIEndpoint = "https://api.openai.com/v1/audio/transcriptions"

// OpenAIASR 基于 OpenAI audio.transcriptions 的实现
type OpenAIASR struct {
	*BaseASR
	apiKey   string
	model    string
	language string
	endpoint string
	client   *http.Client
}

// NewOpenAIASR 创建 OpenAI ASR 实例，endpoint 为空时使用官方接口
func NewOpenAIASR(audioPath string, useCache bool, cacheDir, apiKey, model, language, endpoint string) (*OpenAIASR, error) {
	if apiKey == "" {
		return nil, errors.New("openai: 未配置 API key")
	}
	baseASR, err := NewBaseASR(audioPath, useCache, cacheDir)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "whisper-1"
	}
	if endpoint == "" {
		endpoint = OpenAIEndpoint
	}
	return &OpenAIASR{
		BaseASR:  baseASR,
		apiKey:   apiKey,
		model:    model,
		language: language,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Minute},
	}, nil
}

type openAIResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// GetResult 实现ASRService接口
func (o *OpenAIASR) GetResult(ctx context.Context, callback ProgressCallback) ([]models.DataSegment, error) {
	cacheKey := o.GetCacheKey("openai")
	if segments, ok := o.LoadFromCache(cacheKey); ok {
		utils.Log.Info("从缓存加载OpenAI识别结果")
		report(callback, 100, "识别完成（缓存）")
		return segments, nil
	}

	report(callback, 10, "正在上传音频...")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"model":           o.model,
		"response_format": "verbose_json",
	}
	if o.language != "" {
		fields["language"] = o.language
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(o.AudioPath))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(o.FileBinary); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("openai: 创建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: 请求失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openai: 状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	report(callback, 80, "正在解析识别结果...")

	var or openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("openai: 解析响应失败: %w", err)
	}

	segments := make([]models.DataSegment, 0, len(or.Segments))
	for _, s := range or.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, models.DataSegment{Text: text, StartTime: s.Start, EndTime: s.End})
	}

	if err := o.SaveToCache(cacheKey, segments); err != nil {
		utils.Log.Warnf("%v", err)
	}

	report(callback, 100, "识别完成")
	return segments, nil
}
