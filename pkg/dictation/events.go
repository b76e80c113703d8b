package dictation

// Event 驱动状态机的离散事件
type Event interface {
	event()
}

// Start 开始会话
type Start struct{}

// PlaybackPosition 轮询得到的播放位置（秒）
type PlaybackPosition struct {
	Seconds float64
}

// InputChanged 输入框的完整当前值
type InputChanged struct {
	Value string
}

// Replay 重播当前句子
type Replay struct{}

// Previous 回到上一句
type Previous struct{}

// TimerFired 计时器到期，Generation 为安排计时器时的代数
type TimerFired struct {
	Timer      Timer
	Generation uint64
}

// Restart 从第一句重新开始，错误数清零
type Restart struct{}

func (Start) event()            {}
func (PlaybackPosition) event() {}
func (InputChanged) event()     {}
func (Replay) event()           {}
func (Previous) event()         {}
func (TimerFired) event()       {}
func (Restart) event()          {}
