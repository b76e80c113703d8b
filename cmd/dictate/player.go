package main

import (
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// launchFunc 启动播放进程，返回停止函数
type launchFunc func(name string, args ...string) (stop func(), err error)

func launchProcess(name string, args ...string) (func(), error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	go cmd.Wait()
	return func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}, nil
}

// ffplayPlayer 用 ffplay 播放本地音频
// ffplay 不能查询播放位置，CurrentTime 按开始播放的时刻估算
type ffplayPlayer struct {
	mu        sync.Mutex
	binary    string
	audioPath string
	launch    launchFunc
	now       func() time.Time

	position  float64 // 暂停时的位置，播放时为起播位置
	startedAt time.Time
	stop      func()
}

func newFFplayPlayer(binary, audioPath string) *ffplayPlayer {
	if binary == "" {
		binary = "ffplay"
	}
	return &ffplayPlayer{
		binary:    binary,
		audioPath: audioPath,
		launch:    launchProcess,
		now:       time.Now,
	}
}

func (p *ffplayPlayer) args() []string {
	return []string{
		"-nodisp", "-autoexit",
		"-loglevel", "quiet",
		"-ss", strconv.FormatFloat(p.position, 'f', 3, 64),
		p.audioPath,
	}
}

// SeekTo 跳转，播放中会从新位置重新启动
func (p *ffplayPlayer) SeekTo(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	playing := p.stop != nil
	p.halt()
	p.position = seconds
	if playing {
		return p.start()
	}
	return nil
}

func (p *ffplayPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		return nil
	}
	return p.start()
}

func (p *ffplayPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		p.position = p.current()
		p.halt()
	}
	return nil
}

func (p *ffplayPlayer) CurrentTime() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current(), nil
}

// Close 停止播放进程
func (p *ffplayPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.halt()
}

func (p *ffplayPlayer) current() float64 {
	if p.stop == nil {
		return p.position
	}
	return p.position + p.now().Sub(p.startedAt).Seconds()
}

func (p *ffplayPlayer) start() error {
	stop, err := p.launch(p.binary, p.args()...)
	if err != nil {
		return fmt.Errorf("启动 %s 失败: %w", p.binary, err)
	}
	p.stop = stop
	p.startedAt = p.now()
	return nil
}

func (p *ffplayPlayer) halt() {
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
}
