package models

// Result 单个视频准备结果，cmd/prepare 汇总使用
type Result struct {
	VideoID       string `json:"video_id"`        // 视频ID
	Title         string `json:"title"`           // 视频标题
	Service       string `json:"service"`         // 使用的ASR服务
	AudioPath     string `json:"audio_path"`      // 音频路径
	SRTPath       string `json:"srt_path"`        // 字幕路径
	SegmentCount  int    `json:"segment_count"`   // 识别的句子数
	Cached        bool   `json:"cached"`          // 是否命中缓存
	ProcessTimeMs int64  `json:"process_time_ms"` // 处理时间（毫秒）
	Error         string `json:"error,omitempty"` // 失败原因
}
