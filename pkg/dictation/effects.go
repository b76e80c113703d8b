package dictation

import "time"

// Timer 计时器种类
type Timer int

const (
	TimerAdvance    Timer = iota // 成功提示后进入下一句
	TimerErrorFlash              // 清除错误闪烁
)

func (t Timer) String() string {
	switch t {
	case TimerAdvance:
		return "advance"
	case TimerErrorFlash:
		return "error_flash"
	}
	return "unknown"
}

// Effect 状态转换产生的副作用，由 Controller 或界面适配器执行
type Effect interface {
	effect()
}

// 播放器相关
type (
	SeekTo struct{ Seconds float64 }
	Play   struct{}
	Pause  struct{}
)

// 播放位置轮询
type (
	StartPolling struct{ Interval time.Duration }
	StopPolling  struct{}
)

// 界面相关
type (
	EnableInput          struct{}
	DisableInput         struct{}
	SetInput             struct{ Value string }
	ShowProgress         struct{ Percent float64 }
	ShowErrors           struct{ Count int }
	FlashError           struct{}
	ClearErrorFlash      struct{}
	ShowSuccess          struct{}
	ClearSuccess         struct{}
	ShowSegment          struct{ Index, Total int }
	SetPreviousEnabled   struct{ Enabled bool }
	ShowExerciseComplete struct{ Errors, Total int }
)

// 计时器
type (
	ScheduleTimer struct {
		Timer      Timer
		Delay      time.Duration
		Generation uint64
	}
	CancelTimer struct{ Timer Timer }
)

func (SeekTo) effect()               {}
func (Play) effect()                 {}
func (Pause) effect()                {}
func (StartPolling) effect()         {}
func (StopPolling) effect()          {}
func (EnableInput) effect()          {}
func (DisableInput) effect()         {}
func (SetInput) effect()             {}
func (ShowProgress) effect()         {}
func (ShowErrors) effect()           {}
func (FlashError) effect()           {}
func (ClearErrorFlash) effect()      {}
func (ShowSuccess) effect()          {}
func (ClearSuccess) effect()         {}
func (ShowSegment) effect()          {}
func (SetPreviousEnabled) effect()   {}
func (ShowExerciseComplete) effect() {}
func (ScheduleTimer) effect()        {}
func (CancelTimer) effect()          {}
