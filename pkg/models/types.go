package models

import "encoding/json"

// DataSegment 表示一个语音识别结果段落
type DataSegment struct {
	Text      string  `json:"text"`       // 识别出的文本内容
	StartTime float64 `json:"start_time"` // 开始时间（秒）
	EndTime   float64 `json:"end_time"`   // 结束时间（秒）
}

// Segment 是一句听写练习的单元，解析自 SRT
// ID 从 0 开始且等于其在列表中的下标
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration 返回句子时长（秒）
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Status 视频处理状态
type Status string

const (
	StatusProcessing   Status = "processing"
	StatusDownloading  Status = "downloading"
	StatusTranscribing Status = "transcribing"
	StatusCompleted    Status = "completed"
	StatusError        Status = "error"
)

// Terminal 是否为终止状态
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// VideoStatus 是状态查询接口返回的结构
// Segments 仅在 completed 时非 nil
type VideoStatus struct {
	Status   Status    `json:"status"`
	Title    string    `json:"title,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// MarshalJSON 保证 completed 时即使没有句子也输出空数组
func (v VideoStatus) MarshalJSON() ([]byte, error) {
	type wire struct {
		Status   Status     `json:"status"`
		Title    string     `json:"title,omitempty"`
		Segments *[]Segment `json:"segments,omitempty"`
		Error    string     `json:"error,omitempty"`
	}
	w := wire{Status: v.Status, Title: v.Title, Error: v.Error}
	if v.Segments != nil {
		w.Segments = &v.Segments
	}
	return json.Marshal(w)
}
