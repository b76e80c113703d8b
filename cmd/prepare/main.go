// prepare 批量下载并转写 YouTube 视频，写入与 Web 服务共用的缓存
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/ccp-p/yt-dictation/internal/controller"
	"github.com/ccp-p/yt-dictation/internal/store"
	"github.com/ccp-p/yt-dictation/internal/ui"
	"github.com/ccp-p/yt-dictation/pkg/asr"
	"github.com/ccp-p/yt-dictation/pkg/export"
	"github.com/ccp-p/yt-dictation/pkg/media"
	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/ccp-p/yt-dictation/pkg/youtube"
)

var (
	configFile = flag.String("config", "", "配置文件路径 (.json/.yaml)")
	envFile    = flag.String("env", ".env", ".env 文件路径")
	listFile   = flag.String("file", "", "链接列表文件，每行一个，# 开头为注释")
	workers    = flag.Int("workers", 0, "并发数，覆盖配置中的 max_workers")
	reportFile = flag.String("report", "", "把结果汇总写入 JSON 文件")
	exportJSON = flag.Bool("json", false, "同时导出 <id>.json 文本")
	noProgress = flag.Bool("no-progress", false, "不显示进度条")
	logLevel   = flag.String("log-level", "", "日志级别 (VERBOSE, INFO, WARN)，覆盖配置")
	logFile    = flag.String("log-file", "", "日志文件路径，覆盖配置")
)

// 处理阶段对应的进度
var stageProgress = map[models.Status]int{
	models.StatusProcessing:   0,
	models.StatusDownloading:  1,
	models.StatusTranscribing: 2,
	models.StatusCompleted:    3,
}

const pollInterval = 500 * time.Millisecond

func main() {
	flag.Parse()

	config, err := loadConfig()
	if err != nil {
		color.Red("加载配置失败: %v", err)
		os.Exit(1)
	}
	if err := utils.InitLogger(config.LogLevel, config.LogFile); err != nil {
		color.Red("初始化日志失败: %v", err)
		os.Exit(1)
	}

	urls, err := collectURLs(flag.Args(), *listFile)
	if err != nil {
		color.Red("读取链接失败: %v", err)
		os.Exit(1)
	}
	if len(urls) == 0 {
		fmt.Println("用法: prepare [-file links.txt] <youtube-url>...")
		os.Exit(2)
	}

	printWelcome(len(urls), config.MaxWorkers)

	downloader := youtube.NewDownloader(config.YtDlpPath, config.AudioDir, config.AudioQuality)
	if err := downloader.CheckBinary(); err != nil {
		utils.Fatal("%v", err)
	}
	if !utils.CheckFFmpeg() {
		utils.Fatal("未检测到 FFmpeg，yt-dlp 无法转换 mp3")
	}
	selector := asr.NewSelectorFromConfig(config)
	if len(selector.Services()) == 0 {
		utils.Warn("未配置 DEEPGRAM_API_KEY 或 OPENAI_API_KEY，只能复用已有字幕")
	}
	cache := store.NewFileStore(config.CachePath())

	retry := utils.NewErrorHandler(config.MaxRetries, config.RetryDelay)
	opts := []controller.Option{controller.WithErrorHandler(retry)}
	if prober := media.NewProber(); prober.Available() {
		opts = append(opts, controller.WithProber(prober))
	}
	videos := controller.New(downloader, asr.NewSRTGenerator(config, selector), cache, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := ui.NewProgressManager(nil, !*noProgress)
	if !*noProgress {
		utils.EnableTerminalProgress()
		defer utils.DisableTerminalProgress()
	}

	p := &preparer{videos: videos, progress: progress}
	if *exportJSON {
		p.transcripts = export.NewJSONExporter(config.AudioDir)
		p.language = config.DeepgramLanguage
	}

	results := make([]models.Result, len(urls))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.MaxWorkers)
	for i, url := range urls {
		g.Go(func() error {
			res := p.prepare(gctx, url)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		progress.PrintStatus()
	}
	progress.CloseAll("已中断")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := videos.Shutdown(shutdownCtx); err != nil {
		utils.Warn("等待处理任务退出超时: %v", err)
	}

	failed := printSummary(results, config.ASRService)
	if failed > 0 {
		retry.PrintErrorStats()
	}
	if *reportFile != "" {
		if err := utils.SaveJSONFile(*reportFile, results); err != nil {
			utils.Error("写入结果汇总失败: %v", err)
		} else {
			fmt.Printf("结果汇总已写入: %s\n", *reportFile)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// preparer 逐个提交链接并等待处理结束
type preparer struct {
	videos      *controller.VideoController
	progress    *ui.ProgressManager
	transcripts *export.JSONExporter // 为 nil 时不导出
	language    string
}

// prepare 提交一个链接并轮询到终止状态
func (p *preparer) prepare(ctx context.Context, url string) models.Result {
	videos, progress := p.videos, p.progress
	start := time.Now()
	res := models.Result{}

	submitted, err := videos.Submit(ctx, url)
	if err != nil {
		res.VideoID = url
		res.Error = err.Error()
		return res
	}
	res.VideoID = submitted.VideoID
	barID := submitted.VideoID
	progress.CreateProgressBar(barID, len(stageProgress)-1, barID, string(submitted.Status))
	defer progress.RemoveProgressBar(barID)

	status := models.VideoStatus{Status: submitted.Status}
	res.Cached = submitted.Status == models.StatusCompleted

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for !status.Status.Terminal() {
		select {
		case <-ctx.Done():
			progress.FailProgressBar(barID, "已取消")
			res.Error = ctx.Err().Error()
			return res
		case <-ticker.C:
		}
		if s, ok := videos.Status(submitted.VideoID); ok {
			status = s
			progress.UpdateProgressBar(barID, stageProgress[s.Status], string(s.Status))
		}
	}

	res.ProcessTimeMs = time.Since(start).Milliseconds()
	if status.Status == models.StatusError {
		progress.FailProgressBar(barID, status.Error)
		res.Error = status.Error
		return res
	}

	entry, segments, err := videos.Dictation(submitted.VideoID)
	if err != nil {
		progress.FailProgressBar(barID, err.Error())
		res.Error = err.Error()
		return res
	}
	res.Title = entry.Title
	res.AudioPath = entry.AudioPath
	res.SRTPath = entry.SRTPath
	res.SegmentCount = len(segments)
	progress.CompleteProgressBar(barID, fmt.Sprintf("%d 句", len(segments)))

	if p.transcripts != nil {
		if path, err := p.transcripts.ExportJSON(entry.VideoID, entry.Title, p.language, segments); err != nil {
			progress.PrintMsg("导出 %s 文本失败: %v", entry.VideoID, err)
		} else {
			progress.PrintMsg("已导出文本: %s", path)
		}
	}
	return res
}

// collectURLs 合并命令行参数和列表文件中的链接，按出现顺序去重
func collectURLs(args []string, path string) ([]string, error) {
	urls := append([]string{}, args...)
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			urls = append(urls, line)
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(urls))
	out := urls[:0]
	for _, u := range urls {
		key := u
		if id, err := youtube.ExtractVideoID(u); err == nil {
			key = id
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, u)
	}
	return out, nil
}

// printSummary 打印汇总并返回失败数
func printSummary(results []models.Result, service string) int {
	fmt.Println()
	color.Cyan("处理结果:")
	fmt.Println("--------------------")

	failed := 0
	for i := range results {
		r := &results[i]
		if r.VideoID == "" {
			continue
		}
		r.Service = service
		switch {
		case r.Error != "":
			failed++
			color.Red("✗ %s: %s", r.VideoID, r.Error)
		case r.Cached:
			color.Yellow("= %s (%s): 已缓存, %d 句", r.VideoID, r.Title, r.SegmentCount)
		default:
			color.Green("✓ %s (%s): %d 句, 用时 %s", r.VideoID, r.Title, r.SegmentCount,
				utils.FormatTimeDuration(float64(r.ProcessTimeMs)/1000))
		}
	}

	fmt.Println("--------------------")
	fmt.Printf("共 %d 个，成功 %d 个，失败 %d 个\n", len(results), len(results)-failed, failed)
	return failed
}

// loadConfig 依次应用默认值、配置文件、.env 与环境变量、命令行参数
func loadConfig() (*models.Config, error) {
	config := models.NewDefaultConfig()

	if *configFile != "" {
		if err := config.LoadFromFile(*configFile); err != nil {
			return nil, err
		}
	}
	if _, err := models.LoadEnvFile(*envFile); err != nil {
		return nil, err
	}
	config.ApplyEnv()

	if *workers > 0 {
		config.MaxWorkers = *workers
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}
	if *logFile != "" {
		config.LogFile = *logFile
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func printWelcome(total, workers int) {
	fmt.Println()
	color.Cyan("================================")
	color.Cyan("   听写素材准备 - %d 个视频, 并发 %d   ", total, workers)
	color.Cyan("================================")
	fmt.Println()
}
