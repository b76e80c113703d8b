package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/ccp-p/yt-dictation/pkg/dictation"
)

// terminalView 把界面副作用打印到终端
type terminalView struct {
	mu    sync.Mutex
	out   io.Writer
	typed string // 最近一次 SetInput 的值
}

func newTerminalView(out io.Writer) *terminalView {
	return &terminalView{out: out}
}

func (v *terminalView) Show(e dictation.Effect) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch e := e.(type) {
	case dictation.ShowSegment:
		v.typed = ""
		color.New(color.FgCyan).Fprintf(v.out, "\n第 %d/%d 句，正在播放...\n", e.Index+1, e.Total)
	case dictation.EnableInput:
		fmt.Fprintln(v.out, "> 输入听到的内容 (:r 重播, :p 上一句, :q 退出)")
	case dictation.SetInput:
		v.typed = e.Value
	case dictation.ShowProgress:
		if e.Percent > 0 && e.Percent < 100 {
			fmt.Fprintf(v.out, "  进度 %.0f%%\n", e.Percent)
		}
	case dictation.ShowErrors:
		if e.Count > 0 {
			color.New(color.FgRed).Fprintf(v.out, "  ✗ 不匹配，错误 %d 次，已恢复为: %q\n", e.Count, v.typed)
		}
	case dictation.ShowSuccess:
		color.New(color.FgGreen).Fprintln(v.out, "  ✓ 正确!")
	case dictation.ShowExerciseComplete:
		color.New(color.FgGreen, color.Bold).Fprintf(v.out, "\n全部完成! 共 %d 句，错误 %d 次\n", e.Total, e.Errors)
		fmt.Fprintln(v.out, "输入 :s 重新开始，:q 退出")
	}
}
