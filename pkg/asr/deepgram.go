package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/samber/lo"
)

const (
	// DeepgramEndpoint 预录音频识别接口
	DeepgramEndpoint = "https://api.deepgram.com/v1/listen"

	defaultDeepgramModel    = "nova-3"
	defaultDeepgramLanguage = "en"
	defaultLineLength       = 8
)

// DeepgramOption 配置 DeepgramASR
type DeepgramOption func(*DeepgramASR)

// WithDeepgramModel 设置模型（nova-3、nova-2 等）
func WithDeepgramModel(model string) DeepgramOption {
	return func(d *DeepgramASR) {
		if model != "" {
			d.model = model
		}
	}
}

// WithDeepgramLanguage 设置识别语言
func WithDeepgramLanguage(language string) DeepgramOption {
	return func(d *DeepgramASR) {
		if language != "" {
			d.language = language
		}
	}
}

// WithDeepgramEndpoint 替换接口地址，测试时指向本地服务
func WithDeepgramEndpoint(endpoint string) DeepgramOption {
	return func(d *DeepgramASR) { d.endpoint = endpoint }
}

// WithCaptionLineLength 设置每条字幕的最大单词数
func WithCaptionLineLength(n int) DeepgramOption {
	return func(d *DeepgramASR) {
		if n > 0 {
			d.lineLength = n
		}
	}
}

// WithDeepgramHTTPClient 替换 HTTP 客户端
func WithDeepgramHTTPClient(client *http.Client) DeepgramOption {
	return func(d *DeepgramASR) { d.client = client }
}

// DeepgramASR Deepgram 预录音频识别实现
type DeepgramASR struct {
	*BaseASR
	apiKey     string
	model      string
	language   string
	endpoint   string
	lineLength int
	client     *http.Client
}

// NewDeepgramASR 创建 Deepgram ASR 实例，apiKey 不能为空
func NewDeepgramASR(audioPath string, useCache bool, cacheDir string, apiKey string, opts ...DeepgramOption) (*DeepgramASR, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: 未配置 API key")
	}

	baseASR, err := NewBaseASR(audioPath, useCache, cacheDir)
	if err != nil {
		return nil, err
	}

	d := &DeepgramASR{
		BaseASR:    baseASR,
		apiKey:     apiKey,
		model:      defaultDeepgramModel,
		language:   defaultDeepgramLanguage,
		endpoint:   DeepgramEndpoint,
		lineLength: defaultLineLength,
		client:     &http.Client{Timeout: 30 * time.Minute},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

type deepgramWord struct {
	Word           string  `json:"word"`
	PunctuatedWord string  `json:"punctuated_word"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string         `json:"transcript"`
				Words      []deepgramWord `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []struct {
			Start      float64        `json:"start"`
			End        float64        `json:"end"`
			Transcript string         `json:"transcript"`
			Words      []deepgramWord `json:"words"`
		} `json:"utterances"`
	} `json:"results"`
}

// GetResult 实现ASRService接口
func (d *DeepgramASR) GetResult(ctx context.Context, callback ProgressCallback) ([]models.DataSegment, error) {
	cacheKey := d.GetCacheKey("deepgram")
	if segments, ok := d.LoadFromCache(cacheKey); ok {
		utils.Log.Info("从缓存加载Deepgram识别结果")
		report(callback, 100, "识别完成（缓存）")
		return segments, nil
	}

	report(callback, 10, "正在上传音频...")

	req, err := d.buildRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram: 请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("deepgram: 状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	report(callback, 80, "正在解析识别结果...")

	var dr deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("deepgram: 解析响应失败: %w", err)
	}

	segments := d.captions(dr)
	if err := d.SaveToCache(cacheKey, segments); err != nil {
		utils.Log.Warnf("%v", err)
	}

	report(callback, 100, "识别完成")
	return segments, nil
}

func (d *DeepgramASR) buildRequest(ctx context.Context) (*http.Request, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, fmt.Errorf("deepgram: 接口地址无效: %w", err)
	}
	q := u.Query()
	q.Set("model", d.model)
	q.Set("language", d.language)
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")
	q.Set("utterances", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(d.FileBinary))
	if err != nil {
		return nil, fmt.Errorf("deepgram: 创建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", audioContentType(d.AudioPath))
	return req, nil
}

// captions 把单词按行长切成字幕段，没有 utterances 时退回整段单词
func (d *DeepgramASR) captions(dr deepgramResponse) []models.DataSegment {
	segments := make([]models.DataSegment, 0)

	if len(dr.Results.Utterances) > 0 {
		for _, u := range dr.Results.Utterances {
			if len(u.Words) == 0 {
				if text := strings.TrimSpace(u.Transcript); text != "" && u.End > u.Start {
					segments = append(segments, models.DataSegment{Text: text, StartTime: u.Start, EndTime: u.End})
				}
				continue
			}
			segments = append(segments, wordsToSegments(u.Words, d.lineLength)...)
		}
		return segments
	}

	for _, ch := range dr.Results.Channels {
		if len(ch.Alternatives) == 0 {
			continue
		}
		return append(segments, wordsToSegments(ch.Alternatives[0].Words, d.lineLength)...)
	}
	return segments
}

// wordsToSegments 每 lineLength 个单词组成一段，时间取首尾单词
func wordsToSegments(words []deepgramWord, lineLength int) []models.DataSegment {
	return lo.FilterMap(lo.Chunk(words, lineLength), func(chunk []deepgramWord, _ int) (models.DataSegment, bool) {
		texts := lo.FilterMap(chunk, func(w deepgramWord, _ int) (string, bool) {
			text := w.PunctuatedWord
			if text == "" {
				text = w.Word
			}
			text = strings.TrimSpace(text)
			return text, text != ""
		})
		if len(texts) == 0 {
			return models.DataSegment{}, false
		}
		return models.DataSegment{
			Text:      strings.Join(texts, " "),
			StartTime: chunk[0].Start,
			EndTime:   chunk[len(chunk)-1].End,
		}, true
	})
}

var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
}

func audioContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := audioTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "audio/mpeg"
}
