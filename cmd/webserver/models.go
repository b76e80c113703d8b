package main

import (
	"github.com/ccp-p/yt-dictation/internal/store"
	"github.com/ccp-p/yt-dictation/pkg/models"
)

// --- 请求结构体 ---

// ProcessVideoRequest 提交视频
type ProcessVideoRequest struct {
	YoutubeURL string `json:"youtube_url"`
}

// CheckInputRequest 服务端校验输入
type CheckInputRequest struct {
	SegmentID int    `json:"segment_id"`
	Typed     string `json:"typed"`
}

// --- 响应结构体 ---

// BaseResponse 错误和简单结果的统一格式
type BaseResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"` // omitempty 表示如果为空则不包含在 JSON 中
}

// VideoListResponse 缓存列表
type VideoListResponse struct {
	BaseResponse
	Data []store.Entry `json:"data"`
}

// CheckInputResponse 输入校验结果
type CheckInputResponse struct {
	Accepted    bool    `json:"accepted"`
	Progress    float64 `json:"progress"`
	Complete    bool    `json:"complete"`
	Similarity  float64 `json:"similarity,omitempty"`   // 被拒绝时出错单词的相似度
	SoundsAlike bool    `json:"sounds_alike,omitempty"` // 被拒绝时出错单词是否读音相同
}

// HealthResponse /health 返回
type HealthResponse struct {
	Status string `json:"status"`
	App    string `json:"app"`
}

// --- 页面数据 ---

type homePage struct {
	AppName string
	Videos  []store.Entry
}

type processingPage struct {
	AppName        string
	VideoID        string
	PollIntervalMs int
	SettleDelayMs  int
}

type dictationPage struct {
	AppName  string
	VideoID  string
	Title    string
	Segments []models.Segment
}

type notFoundPage struct {
	AppName string
	Message string
}
