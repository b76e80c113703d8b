// Package dictation 实现逐字听写的状态机
//
// 所有状态转换都通过 Apply(State, Event) 完成，Apply 是纯函数，
// 返回新状态和需要执行的副作用。Controller 负责执行副作用（播放器、计时器、界面）。
package dictation

import (
	"time"

	"github.com/ccp-p/yt-dictation/pkg/models"
)

// 时间常量
const (
	PollInterval    = 100 * time.Millisecond  // 播放位置轮询间隔
	ErrorFlashDelay = 300 * time.Millisecond  // 错误提示闪烁时长
	AdvanceDelay    = 1500 * time.Millisecond // 完成一句后进入下一句的等待
)

// Phase 听写阶段
type Phase int

const (
	Listening        Phase = iota // 正在播放当前句子，输入禁用
	AwaitingInput                 // 播放结束，等待输入
	SegmentComplete               // 当前句子完成，显示成功提示
	ExerciseComplete              // 全部完成，终止状态
)

func (p Phase) String() string {
	switch p {
	case Listening:
		return "listening"
	case AwaitingInput:
		return "awaiting_input"
	case SegmentComplete:
		return "segment_complete"
	case ExerciseComplete:
		return "exercise_complete"
	}
	return "unknown"
}

// State 一次听写会话的全部状态
// Typed 始终是当前句子文本的前缀，切换句子时清空
type State struct {
	Segments   []models.Segment // 只读
	Index      int
	Typed      string
	Errors     int
	Phase      Phase
	Progress   float64 // 0-100
	Generation uint64  // 每次开始新句子时递增，旧计时器据此失效
	Started    bool
}

// NewState 创建尚未开始的会话，需要先应用 Start 事件
func NewState(segments []models.Segment) State {
	return State{Segments: segments, Phase: Listening}
}

// Total 句子总数
func (s State) Total() int {
	return len(s.Segments)
}

// Current 返回当前句子，会话结束或没有句子时返回 false
func (s State) Current() (models.Segment, bool) {
	if s.Phase == ExerciseComplete || s.Index < 0 || s.Index >= len(s.Segments) {
		return models.Segment{}, false
	}
	return s.Segments[s.Index], true
}
