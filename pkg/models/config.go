package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ASR 服务名称
const (
	ASRServiceDeepgram = "deepgram"
	ASRServiceOpenAI   = "openai"
	ASRServiceAuto     = "auto"
)

// Config 表示应用程序的配置
type Config struct {
	AppName    string `json:"app_name" yaml:"app_name"`       // 应用名称，/health 返回
	Debug      bool   `json:"debug" yaml:"debug"`             // 调试模式
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"` // HTTP 监听地址

	AudioDir  string `json:"audio_dir" yaml:"audio_dir"`   // 音频、字幕与缓存所在目录
	CacheFile string `json:"cache_file" yaml:"cache_file"` // 缓存文件名，相对于 AudioDir

	// asr-service
	ASRService        string `json:"asr_service" yaml:"asr_service"`                 // ASR服务选择 (deepgram, openai, auto)
	DeepgramAPIKey    string `json:"deepgram_api_key" yaml:"deepgram_api_key"`       // Deepgram 密钥
	DeepgramModel     string `json:"deepgram_model" yaml:"deepgram_model"`           // Deepgram 模型
	DeepgramLanguage  string `json:"deepgram_language" yaml:"deepgram_language"`     // 识别语言
	OpenAIAPIKey      string `json:"openai_api_key" yaml:"openai_api_key"`           // OpenAI 密钥
	OpenAIModel       string `json:"openai_model" yaml:"openai_model"`               // OpenAI 转写模型
	CaptionLineLength int    `json:"caption_line_length" yaml:"caption_line_length"` // 每条字幕最多单词数
	UseASRCache       bool   `json:"use_asr_cache" yaml:"use_asr_cache"`             // 是否缓存识别结果
	ASRCacheDir       string `json:"asr_cache_dir" yaml:"asr_cache_dir"`             // 识别结果缓存目录，空则为 AudioDir/.asr_cache

	YtDlpPath    string `json:"yt_dlp_path" yaml:"yt_dlp_path"`     // yt-dlp 可执行文件
	AudioQuality string `json:"audio_quality" yaml:"audio_quality"` // mp3 码率 (kbps)

	MaxRetries int     `json:"max_retries" yaml:"max_retries"` // 最大重试次数
	RetryDelay float64 `json:"retry_delay" yaml:"retry_delay"` // 重试延迟（秒）
	MaxWorkers int     `json:"max_workers" yaml:"max_workers"` // 批量准备时的并发数
	WatchMode  bool    `json:"watch_mode" yaml:"watch_mode"`   // 是否监听目录导入手工放入的字幕

	StatusPollIntervalMs int `json:"status_poll_interval_ms" yaml:"status_poll_interval_ms"` // 处理页轮询间隔
	SettleDelayMs        int `json:"settle_delay_ms" yaml:"settle_delay_ms"`                 // 完成后跳转前的等待

	LogLevel string `json:"log_level" yaml:"log_level"` // 日志级别
	LogFile  string `json:"log_file" yaml:"log_file"`   // 日志文件
}

// ConfigValidationError 表示配置验证错误
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	msg := fmt.Sprintf("配置验证错误: %s - %s", e.Field, e.Message)
	logrus.Error(msg) // 记录日志
	return msg
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	return &Config{
		AppName:              "English Dictation App",
		Debug:                false,
		ListenAddr:           ":8000",
		AudioDir:             filepath.Join("app", "static", "audios"),
		CacheFile:            "cache.json",
		ASRService:           ASRServiceDeepgram,
		DeepgramModel:        "nova-3",
		DeepgramLanguage:     "en",
		OpenAIModel:          "whisper-1",
		CaptionLineLength:    8,
		UseASRCache:          true,
		YtDlpPath:            "yt-dlp",
		AudioQuality:         "192",
		MaxRetries:           3,
		RetryDelay:           1.0,
		MaxWorkers:           2,
		WatchMode:            false,
		StatusPollIntervalMs: 2000,
		SettleDelayMs:        1000,
		LogLevel:             "INFO",
		LogFile:              "",
	}
}

// Validate 验证配置是否有效
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AudioDir) == "" {
		return &ConfigValidationError{"AudioDir", "不能为空"}
	}
	if err := ensureDirExists(c.AudioDir); err != nil {
		return &ConfigValidationError{"AudioDir", err.Error()}
	}

	if c.CacheFile == "" || filepath.Base(c.CacheFile) != c.CacheFile {
		return &ConfigValidationError{"CacheFile", "必须是不含目录的文件名"}
	}

	if strings.TrimSpace(c.ListenAddr) == "" {
		return &ConfigValidationError{"ListenAddr", "不能为空"}
	}

	switch c.ASRService {
	case ASRServiceDeepgram, ASRServiceOpenAI, ASRServiceAuto:
	default:
		return &ConfigValidationError{"ASRService", "必须是 deepgram、openai 或 auto"}
	}

	// 验证数值范围
	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		return &ConfigValidationError{"MaxRetries", "必须在1-10之间"}
	}

	if c.RetryDelay < 0.1 || c.RetryDelay > 10.0 {
		return &ConfigValidationError{"RetryDelay", "必须在0.1-10.0秒之间"}
	}

	if c.MaxWorkers < 1 || c.MaxWorkers > 16 {
		return &ConfigValidationError{"MaxWorkers", "必须在1-16之间"}
	}

	if c.CaptionLineLength < 1 || c.CaptionLineLength > 50 {
		return &ConfigValidationError{"CaptionLineLength", "必须在1-50之间"}
	}

	if c.StatusPollIntervalMs < 100 || c.StatusPollIntervalMs > 60000 {
		return &ConfigValidationError{"StatusPollIntervalMs", "必须在100-60000毫秒之间"}
	}

	if c.SettleDelayMs < 0 || c.SettleDelayMs > 10000 {
		return &ConfigValidationError{"SettleDelayMs", "必须在0-10000毫秒之间"}
	}

	if _, err := strconv.Atoi(c.AudioQuality); err != nil {
		return &ConfigValidationError{"AudioQuality", "必须是整数码率"}
	}

	return nil
}

// CachePath 返回缓存文件的完整路径
func (c *Config) CachePath() string {
	return filepath.Join(c.AudioDir, c.CacheFile)
}

// ResolvedASRCacheDir 返回识别结果缓存目录
func (c *Config) ResolvedASRCacheDir() string {
	if c.ASRCacheDir != "" {
		return c.ASRCacheDir
	}
	return filepath.Join(c.AudioDir, ".asr_cache")
}

// LoadFromFile 从文件加载配置，.yaml/.yml 按 YAML 解析，其他按 JSON
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("读取配置文件失败: %v", err)
		return err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, c)
	} else {
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		logrus.Errorf("解析配置文件失败: %v", err)
		return err
	}

	if err := c.Validate(); err != nil {
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	return nil
}

// SaveToFile 保存配置到文件
func (c *Config) SaveToFile(path string) error {
	// 确保目录存在
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logrus.Errorf("创建目录失败: %v", err)
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		logrus.Errorf("写入配置文件失败: %v", err)
		return err
	}

	return nil
}

// 环境变量覆盖表
var envOverrides = map[string]func(c *Config, v string){
	"DEEPGRAM_API_KEY": func(c *Config, v string) { c.DeepgramAPIKey = v },
	"OPENAI_API_KEY":   func(c *Config, v string) { c.OpenAIAPIKey = v },
	"AUDIO_DIR":        func(c *Config, v string) { c.AudioDir = v },
	"LISTEN_ADDR":      func(c *Config, v string) { c.ListenAddr = v },
	"LOG_LEVEL":        func(c *Config, v string) { c.LogLevel = v },
	"ASR_SERVICE":      func(c *Config, v string) { c.ASRService = strings.ToLower(v) },
	"DEBUG": func(c *Config, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	},
}

// ApplyEnv 用环境变量覆盖配置，返回被覆盖的变量名
func (c *Config) ApplyEnv() []string {
	var applied []string
	for key, set := range envOverrides {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			set(c, strings.TrimSpace(v))
			applied = append(applied, key)
		}
	}
	return applied
}

// Update 批量更新配置
func (c *Config) Update(updates map[string]interface{}) error {
	// 创建临时配置并保存当前配置（用于回滚）
	tempConfig := *c

	// 将更新序列化为JSON再反序列化到结构体中
	updateBytes, err := json.Marshal(updates)
	if err != nil {
		logrus.Errorf("序列化更新数据失败: %v", err)
		return err
	}

	err = json.Unmarshal(updateBytes, c)
	if err != nil {
		// 回滚配置
		*c = tempConfig
		logrus.Errorf("应用配置更新失败: %v", err)
		return err
	}

	// 验证配置
	if err := c.Validate(); err != nil {
		// 回滚配置
		*c = tempConfig
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	return nil
}

// Reset 重置为默认配置
func (c *Config) Reset() {
	defaultConfig := NewDefaultConfig()
	*c = *defaultConfig
}

// Redacted 返回隐藏密钥后的副本，用于打印
func (c *Config) Redacted() Config {
	out := *c
	out.DeepgramAPIKey = mask(out.DeepgramAPIKey)
	out.OpenAIAPIKey = mask(out.OpenAIAPIKey)
	return out
}

// PrintConfig 打印当前配置
func (c *Config) PrintConfig() {
	logrus.Info("当前配置:")
	bytes, err := json.MarshalIndent(c.Redacted(), "", "  ")
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return
	}
	logrus.Info(string(bytes))
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// 确保目录存在，如果不存在则创建
func ensureDirExists(path string) error {
	if path == "" {
		return nil // 空路径视为可选
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}

	return nil
}
