// Package asr 封装第三方语音识别服务，把音频转成带时间戳的文本段落
package asr

import (
	"context"

	"github.com/ccp-p/yt-dictation/pkg/models"
)

// ProgressCallback 是进度回调函数，用于通知识别过程的进度
type ProgressCallback func(percent int, message string)

// ASRService 定义了语音识别服务的接口
type ASRService interface {
	// GetResult 执行识别并返回结果
	GetResult(ctx context.Context, callback ProgressCallback) ([]models.DataSegment, error)
}

// ServiceCreator 是创建ASR服务实例的函数类型
type ServiceCreator func(audioPath string, useCache bool) (ASRService, error)

func report(callback ProgressCallback, percent int, message string) {
	if callback != nil {
		callback(percent, message)
	}
}
