package dictation

import "time"

// Scheduler 安排延迟执行的函数，返回的 stop 用于取消
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// TimeScheduler 基于 time.AfterFunc 的调度器
type TimeScheduler struct{}

// AfterFunc 实现 Scheduler
func (TimeScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
