package dictation

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/sirupsen/logrus"
)

// ErrClosed 会话已关闭
var ErrClosed = errors.New("dictation session closed")

// Player 播放器，CurrentTime 返回权威的播放位置（秒）
type Player interface {
	SeekTo(seconds float64) error
	Play() error
	Pause() error
	CurrentTime() (float64, error)
}

// View 接收界面副作用
type View interface {
	Show(e Effect)
}

// ViewFunc 让普通函数实现 View
type ViewFunc func(e Effect)

// Show 实现 View
func (f ViewFunc) Show(e Effect) { f(e) }

// Option 配置 Controller
type Option func(*Controller)

// WithScheduler 替换计时器调度器
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// WithPollInterval 替换轮询间隔，0 表示不启动轮询协程（由调用方调用 Tick）
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.pollInterval = d
		c.pollIntervalSet = true
	}
}

// WithLogger 指定日志条目
func WithLogger(entry *logrus.Entry) Option {
	return func(c *Controller) { c.log = entry }
}

// Controller 持有一个会话状态，串行处理事件并执行副作用
type Controller struct {
	mu     sync.Mutex
	state  State
	player Player
	view   View
	sched  Scheduler
	log    *logrus.Entry

	timers          map[Timer]func() bool
	lastPos         float64 // 最近一次轮询读到的位置
	havePos         bool
	seekPending     bool    // 跳转后还没读到新位置
	preSeekPos      float64 // 跳转前的位置
	pollInterval    time.Duration
	pollIntervalSet bool
	pollStop        chan struct{}
	pollWG          sync.WaitGroup
	closed          bool
}

// NewController 创建听写控制器
func NewController(segments []models.Segment, player Player, view View, opts ...Option) *Controller {
	c := &Controller{
		state:  NewState(segments),
		player: player,
		view:   view,
		sched:  TimeScheduler{},
		timers: make(map[Timer]func() bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = utils.WithField("component", "dictation")
	}
	if c.view == nil {
		c.view = ViewFunc(func(Effect) {})
	}
	return c
}

// Start 开始会话
func (c *Controller) Start() error {
	return c.Dispatch(Start{})
}

// Dispatch 处理一个事件，每个事件完整执行后才处理下一个
func (c *Controller) Dispatch(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatchLocked(ev)
}

func (c *Controller) dispatchLocked(ev Event) error {
	if c.closed {
		return ErrClosed
	}

	next, effects := Apply(c.state, ev)
	if next.Phase != c.state.Phase {
		c.log.WithFields(logrus.Fields{
			"from":    c.state.Phase.String(),
			"to":      next.Phase.String(),
			"segment": next.Index,
		}).Debug("阶段切换")
	}
	c.state = next
	return c.execute(effects)
}

// Tick 读取一次播放位置并作为事件处理，只在 Listening 阶段生效
func (c *Controller) Tick() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state.Phase != Listening || !c.state.Started {
		return nil
	}

	pos, err := c.player.CurrentTime()
	if err != nil {
		return fmt.Errorf("读取播放位置失败: %w", err)
	}
	if c.staleAfterSeek(pos) {
		c.log.WithField("position", pos).Debug("播放器尚未完成跳转，忽略本次位置")
		return nil
	}
	c.lastPos, c.havePos = pos, true
	return c.dispatchLocked(PlaybackPosition{Seconds: pos})
}

// staleSeekTolerance 与跳转前位置相差不超过此值视为播放器还没完成跳转
const staleSeekTolerance = 0.25

// staleAfterSeek 跳转后播放器可能仍返回旧位置。旧位置已越过当前句子结尾时忽略，
// 直到读到不同的位置为止
func (c *Controller) staleAfterSeek(pos float64) bool {
	if !c.seekPending {
		return false
	}
	end := c.state.Segments[c.state.Index].End
	if pos >= end && math.Abs(pos-c.preSeekPos) <= staleSeekTolerance {
		return true
	}
	c.seekPending = false
	return false
}

// State 返回当前状态快照
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close 停止轮询并取消所有计时器
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopPolling()
	for kind, stop := range c.timers {
		stop()
		delete(c.timers, kind)
	}
	c.mu.Unlock()

	c.pollWG.Wait()
}

func (c *Controller) execute(effects []Effect) error {
	var errs []error
	for _, e := range effects {
		if err := c.executeOne(e); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		c.log.Warnf("执行副作用失败: %v", err)
		return err
	}
	return nil
}

func (c *Controller) executeOne(e Effect) error {
	switch e := e.(type) {
	case SeekTo:
		c.seekPending, c.preSeekPos = c.havePos, c.lastPos
		return c.player.SeekTo(e.Seconds)
	case Play:
		return c.player.Play()
	case Pause:
		return c.player.Pause()
	case StartPolling:
		c.startPolling(e.Interval)
	case StopPolling:
		c.stopPolling()
	case ScheduleTimer:
		c.cancelTimer(e.Timer)
		fired := TimerFired{Timer: e.Timer, Generation: e.Generation}
		c.timers[e.Timer] = c.sched.AfterFunc(e.Delay, func() {
			if err := c.Dispatch(fired); err != nil && !errors.Is(err, ErrClosed) {
				c.log.Warnf("计时器 %s 处理失败: %v", fired.Timer, err)
			}
		})
	case CancelTimer:
		c.cancelTimer(e.Timer)
	default:
		c.view.Show(e)
	}
	return nil
}

func (c *Controller) cancelTimer(kind Timer) {
	if stop, ok := c.timers[kind]; ok {
		stop()
		delete(c.timers, kind)
	}
}

func (c *Controller) startPolling(interval time.Duration) {
	if c.pollIntervalSet {
		interval = c.pollInterval
	}
	if interval <= 0 || c.pollStop != nil {
		return
	}

	stop := make(chan struct{})
	c.pollStop = stop
	c.pollWG.Add(1)
	go func() {
		defer c.pollWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := c.Tick(); err != nil {
					if errors.Is(err, ErrClosed) {
						return
					}
					c.log.Debugf("轮询失败: %v", err)
				}
			}
		}
	}()
}

func (c *Controller) stopPolling() {
	if c.pollStop != nil {
		close(c.pollStop)
		c.pollStop = nil
	}
}
