package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ProgressBar 进度条结构
type ProgressBar struct {
	Total      int       // 总步数
	Current    int       // 当前进度
	Prefix     string    // 前缀
	Suffix     string    // 后缀
	Width      int       // 进度条宽度
	FillChar   string    // 填充字符
	EmptyChar  string    // 空白字符
	StartTime  time.Time // 开始时间
	LastUpdate time.Time // 上次更新时间

	out io.Writer
	mu  *sync.Mutex // 与同一终端上的其他进度条共享
}

// NewProgressBar 创建新的进度条，输出到 out
func NewProgressBar(out io.Writer, total int, prefix string, suffix string) *ProgressBar {
	if total <= 0 {
		total = 1
	}
	return &ProgressBar{
		Total:      total,
		Prefix:     prefix,
		Suffix:     suffix,
		Width:      30,
		FillChar:   "█",
		EmptyChar:  "░",
		StartTime:  time.Now(),
		LastUpdate: time.Now(),
		out:        out,
		mu:         &sync.Mutex{},
	}
}

// Update 更新进度
func (p *ProgressBar) Update(current int, suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current < 0 {
		return
	}
	if current > p.Total {
		current = p.Total
	}

	p.Current = current
	if suffix != "" {
		p.Suffix = suffix
	}
	p.LastUpdate = time.Now()
	p.draw()
}

// Increment 增加进度
func (p *ProgressBar) Increment(suffix string) {
	p.mu.Lock()
	next := p.Current + 1
	p.mu.Unlock()
	p.Update(next, suffix)
}

// Complete 完成进度条
func (p *ProgressBar) Complete(suffix string) {
	p.Update(p.Total, suffix)
	p.mu.Lock()
	fmt.Fprintln(p.out)
	p.mu.Unlock()
}

// Fail 以红色输出失败信息并换行
func (p *ProgressBar) Fail(suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Suffix = suffix
	fmt.Fprint(p.out, "\033[2K\r")
	fmt.Fprintln(p.out, color.RedString("%s [%s] %s", p.Prefix, p.renderBar(), suffix))
}

func (p *ProgressBar) percent() float64 {
	return float64(p.Current) / float64(p.Total)
}

func (p *ProgressBar) renderBar() string {
	filled := int(p.percent() * float64(p.Width))
	if filled > p.Width {
		filled = p.Width
	}
	return strings.Repeat(p.FillChar, filled) + strings.Repeat(p.EmptyChar, p.Width-filled)
}

func (p *ProgressBar) draw() {
	percent := p.percent()
	elapsed := time.Since(p.StartTime)

	// 估计剩余时间
	var remaining time.Duration
	if p.Current > 0 {
		remaining = time.Duration(float64(elapsed) / percent * (1 - percent))
	}

	line := fmt.Sprintf("%s [%s] %3.0f%% | %d/%d | %s<%s | %s",
		p.Prefix, p.renderBar(), percent*100, p.Current, p.Total,
		formatDuration(elapsed), formatDuration(remaining), p.Suffix)

	// 先清除当前行，避免与较长的旧内容混在一起
	fmt.Fprint(p.out, "\033[2K\r")
	fmt.Fprint(p.out, color.CyanString(line))
}

// String 返回进度条的字符串表示
func (p *ProgressBar) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("%s [%s] %3.0f%% | %d/%d", p.Prefix, p.renderBar(), p.percent()*100, p.Current, p.Total)
}

// 格式化持续时间为 MM:SS 格式
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
