package ui

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/fatih/color"
)

// ProgressManager 管理多个进度条，所有进度条共用一把输出锁
type ProgressManager struct {
	progressBars map[string]*ProgressBar
	mutex        sync.Mutex
	outMu        sync.Mutex
	out          io.Writer
	enabled      bool
}

// NewProgressManager 创建新的进度管理器，out 为 nil 时输出到终端
func NewProgressManager(out io.Writer, enabled bool) *ProgressManager {
	if out == nil {
		out = color.Output
	}
	return &ProgressManager{
		progressBars: make(map[string]*ProgressBar),
		out:          out,
		enabled:      enabled,
	}
}

// CreateProgressBar 创建并注册一个新的进度条，禁用时返回 nil
func (pm *ProgressManager) CreateProgressBar(id string, total int, prefix string, suffix string) *ProgressBar {
	if !pm.enabled {
		return nil
	}

	pm.mutex.Lock()
	old, exists := pm.progressBars[id]
	bar := NewProgressBar(pm.out, total, prefix, suffix)
	bar.mu = &pm.outMu
	pm.progressBars[id] = bar
	pm.mutex.Unlock()

	// 已经存在同名进度条时先完成它
	if exists {
		old.Complete("已被替换")
	}
	return bar
}

// GetProgressBar 获取已存在的进度条
func (pm *ProgressManager) GetProgressBar(id string) *ProgressBar {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	return pm.progressBars[id]
}

// UpdateProgressBar 更新进度条
func (pm *ProgressManager) UpdateProgressBar(id string, current int, suffix string) {
	if bar := pm.GetProgressBar(id); bar != nil {
		bar.Update(current, suffix)
	}
}

// CompleteProgressBar 完成并移除进度条
func (pm *ProgressManager) CompleteProgressBar(id string, suffix string) {
	if bar := pm.GetProgressBar(id); bar != nil {
		bar.Complete(suffix)
		pm.RemoveProgressBar(id)
	}
}

// FailProgressBar 标记失败并移除进度条
func (pm *ProgressManager) FailProgressBar(id string, suffix string) {
	if bar := pm.GetProgressBar(id); bar != nil {
		bar.Fail(suffix)
		pm.RemoveProgressBar(id)
	}
}

// RemoveProgressBar 移除进度条
func (pm *ProgressManager) RemoveProgressBar(id string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	delete(pm.progressBars, id)
}

// CloseAll 完成所有进度条
func (pm *ProgressManager) CloseAll(suffix string) {
	pm.mutex.Lock()
	bars := make([]*ProgressBar, 0, len(pm.progressBars))
	for _, bar := range pm.progressBars {
		bars = append(bars, bar)
	}
	pm.progressBars = make(map[string]*ProgressBar)
	pm.mutex.Unlock()

	for _, bar := range bars {
		bar.Complete(suffix)
	}
}

// PrintMsg 在进度条之间安全地打印一行消息
func (pm *ProgressManager) PrintMsg(format string, args ...interface{}) {
	pm.outMu.Lock()
	defer pm.outMu.Unlock()
	fmt.Fprint(pm.out, "\033[2K\r")
	fmt.Fprintf(pm.out, format+"\n", args...)
}

// PrintStatus 打印当前所有进度条的状态
func (pm *ProgressManager) PrintStatus() {
	pm.mutex.Lock()
	ids := make([]string, 0, len(pm.progressBars))
	for id := range pm.progressBars {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		bar := pm.progressBars[id]
		lines = append(lines, fmt.Sprintf("- %s: %s %s", id, bar.String(), bar.Suffix))
	}
	pm.mutex.Unlock()

	if len(lines) == 0 {
		return
	}
	pm.PrintMsg("\n当前进度状态:")
	for _, l := range lines {
		pm.PrintMsg("%s", l)
	}
}
