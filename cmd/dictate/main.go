// dictate 在终端里对已缓存的视频做听写练习，用 ffplay 播放音频
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/ccp-p/yt-dictation/internal/store"
	"github.com/ccp-p/yt-dictation/pkg/dictation"
	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/srt"
	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/ccp-p/yt-dictation/pkg/youtube"
)

var (
	configFile = flag.String("config", "", "配置文件路径 (.json/.yaml)")
	envFile    = flag.String("env", ".env", ".env 文件路径")
	ffplayPath = flag.String("ffplay", "ffplay", "ffplay 可执行文件")
	logLevel   = flag.String("log-level", utils.LogLevelQuiet, "日志级别")
	logFile    = flag.String("log-file", "", "日志文件路径")
)

func main() {
	flag.Parse()

	if err := utils.InitLogger(*logLevel, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	config := models.NewDefaultConfig()
	if *configFile != "" {
		if err := config.LoadFromFile(*configFile); err != nil {
			color.Red("加载配置失败: %v", err)
			os.Exit(1)
		}
	}
	if _, err := models.LoadEnvFile(*envFile); err != nil {
		color.Red("加载环境文件失败: %v", err)
		os.Exit(1)
	}
	config.ApplyEnv()

	cache := store.NewFileStore(config.CachePath())
	entries, err := cache.List()
	if err != nil {
		color.Red("读取缓存失败: %v", err)
		os.Exit(1)
	}

	if flag.NArg() == 0 {
		printEntries(entries)
		return
	}

	entry, ok := resolveEntry(entries, flag.Arg(0))
	if !ok {
		color.Red("缓存中没有 %s，请先用 prepare 或网页提交", flag.Arg(0))
		os.Exit(1)
	}
	if !entry.FilesExist() {
		color.Red("音频或字幕文件已丢失: %s", entry.VideoID)
		os.Exit(1)
	}

	content, err := os.ReadFile(entry.SRTPath)
	if err != nil {
		color.Red("读取字幕失败: %v", err)
		os.Exit(1)
	}
	segments, skipped := srt.ParseWithReport(string(content))
	for _, b := range skipped {
		color.Yellow("跳过字幕块 %s", b)
	}
	if len(segments) == 0 {
		color.Red("字幕中没有可用的句子: %s", entry.SRTPath)
		os.Exit(1)
	}
	if !utils.CheckBinary(*ffplayPath, "-version") {
		color.Red("未找到 ffplay: %s", *ffplayPath)
		os.Exit(1)
	}

	color.Cyan("\n%s (%d 句)", entry.Title, len(segments))

	player := newFFplayPlayer(*ffplayPath, entry.AudioPath)
	defer player.Close()
	session := dictation.NewController(segments, player, newTerminalView(os.Stdout),
		dictation.WithLogger(utils.WithField("video_id", entry.VideoID)))
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := session.Start(); err != nil {
		color.Red("开始听写失败: %v", err)
		return
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleLine(session, strings.TrimRight(line, "\r")); quit {
				return
			}
		}
	}
}

// handleLine 处理一行输入，返回是否退出
func handleLine(session *dictation.Controller, line string) bool {
	var err error
	switch strings.TrimSpace(line) {
	case ":q":
		return true
	case ":r":
		err = session.Dispatch(dictation.Replay{})
	case ":p":
		err = session.Dispatch(dictation.Previous{})
	case ":s":
		err = session.Dispatch(dictation.Restart{})
	case "":
	default:
		st := session.State()
		if st.Phase != dictation.AwaitingInput {
			color.Yellow("  还在播放，请听完再输入")
			return false
		}
		value := nextInput(st.Typed, line)
		err = session.Dispatch(dictation.InputChanged{Value: value})
		after := session.State()
		switch {
		case err != nil || after.Phase != dictation.AwaitingInput:
		case after.Errors > st.Errors:
			printHint(dictation.WordHint(st.Segments[st.Index].Text, value))
		case after.Typed != st.Typed:
			fmt.Printf("  已输入: %q\n", after.Typed)
		}
	}
	if err != nil {
		utils.Warn("处理输入失败: %v", err)
	}
	return false
}

func printHint(h dictation.Hint) {
	switch {
	case h.SoundsAlike:
		color.Yellow("  提示: 读音对了，检查拼写")
	case h.Similarity >= 0.8:
		color.Yellow("  提示: 很接近了")
	}
}

// nextInput 把新的一行接到已接受的内容后面
// 默认按单词用一个空格连接，以 + 开头时直接拼接
func nextInput(typed, line string) string {
	if rest, ok := strings.CutPrefix(line, "+"); ok {
		return typed + rest
	}
	if typed == "" || strings.HasSuffix(typed, " ") || strings.HasPrefix(line, " ") {
		return typed + line
	}
	return typed + " " + line
}

// resolveEntry 按视频ID、链接或列表序号查找缓存条目
func resolveEntry(entries []store.Entry, arg string) (store.Entry, bool) {
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(entries) {
		return entries[n-1], true
	}
	id := arg
	if extracted, err := youtube.ExtractVideoID(arg); err == nil {
		id = extracted
	}
	for _, e := range entries {
		if e.VideoID == id {
			return e, true
		}
	}
	return store.Entry{}, false
}

func printEntries(entries []store.Entry) {
	if len(entries) == 0 {
		fmt.Println("缓存为空，请先用 prepare 准备视频")
		return
	}
	color.Cyan("已准备的视频:")
	for i, e := range entries {
		fmt.Printf("%d. %s  %s (%d 句)\n", i+1, e.VideoID, e.Title, e.SegmentCount)
	}
	fmt.Println("\n用法: dictate <序号|视频ID|链接>")
}
