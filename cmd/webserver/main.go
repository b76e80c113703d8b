package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/ccp-p/yt-dictation/internal/controller"
	"github.com/ccp-p/yt-dictation/internal/health"
	"github.com/ccp-p/yt-dictation/internal/metrics"
	"github.com/ccp-p/yt-dictation/internal/store"
	"github.com/ccp-p/yt-dictation/internal/watcher"
	"github.com/ccp-p/yt-dictation/pkg/asr"
	"github.com/ccp-p/yt-dictation/pkg/media"
	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/scanner"
	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/ccp-p/yt-dictation/pkg/youtube"
	"github.com/ccp-p/yt-dictation/web"
)

var (
	configFile = flag.String("config", "", "配置文件路径 (.json/.yaml)")
	envFile    = flag.String("env", ".env", ".env 文件路径")
	listenAddr = flag.String("addr", "", "监听地址，覆盖配置")
	logLevel   = flag.String("log-level", "", "日志级别 (VERBOSE, INFO, WARN)，覆盖配置")
	logFile    = flag.String("log-file", "", "日志文件路径，覆盖配置")
)

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

	printWelcome(config)
	config.PrintConfig()

	downloader := youtube.NewDownloader(config.YtDlpPath, config.AudioDir, config.AudioQuality)
	if err := downloader.CheckBinary(); err != nil {
		utils.Warn("%v，提交新视频将会失败", err)
	}
	if !utils.CheckFFmpeg() {
		utils.Warn("未检测到 FFmpeg，yt-dlp 无法转换 mp3")
	}
	selector := asr.NewSelectorFromConfig(config)
	if len(selector.Services()) == 0 {
		utils.Warn("未配置 DEEPGRAM_API_KEY 或 OPENAI_API_KEY，无法转写新视频")
	}
	generator := asr.NewSRTGenerator(config, selector)
	cache := store.NewFileStore(config.CachePath())
	m := metrics.New()

	opts := []controller.Option{
		controller.WithRecorder(m),
		controller.WithErrorHandler(utils.NewErrorHandler(config.MaxRetries, config.RetryDelay)),
	}
	prober := media.NewProber()
	if prober.Available() {
		opts = append(opts, controller.WithProber(prober))
	}
	videos := controller.New(downloader, generator, cache, opts...)

	// 补登记目录中已有的音频和字幕
	items, err := scanner.NewMediaScanner().ScanLibrary(config.AudioDir)
	if err != nil {
		utils.Warn("扫描音频目录失败: %v", err)
	} else if _, err := cache.Reconcile(items, downloader.Title); err != nil {
		utils.Warn("补登记缓存失败: %v", err)
	}

	if config.WatchMode {
		stop, err := watcher.StartSRTImport(config.AudioDir, cache, downloader.Title, watcher.DefaultDebounce)
		if err != nil {
			utils.Error("启动字幕监控失败: %v", err)
		} else {
			defer stop()
		}
	}

	pages, err := web.LoadTemplates()
	if err != nil {
		utils.Fatal("加载页面模板失败: %v", err)
	}

	checks := health.New(
		health.DirWritable(config.AudioDir),
		health.Binary("yt-dlp", config.YtDlpPath, "--version"),
		health.Binary("ffmpeg", "ffmpeg", "-version"),
	)
	srv := &server{config: config, videos: videos, pages: pages}

	httpServer := &http.Server{
		Addr:              config.ListenAddr,
		Handler:           newRouter(srv, checks, m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Info("Web服务启动在 %s", config.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("服务器启动失败: %v", err)
		}
	}()

	// 等待终止信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	utils.Info("接收到中断信号，正在停止...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		utils.Error("关闭 HTTP 服务失败: %v", err)
	}
	if err := videos.Shutdown(ctx); err != nil {
		utils.Error("等待处理任务退出超时: %v", err)
	}
	utils.Info("服务已停止")
}

// loadConfig 依次应用默认值、配置文件、.env 与环境变量、命令行参数
func loadConfig() (*models.Config, error) {
	config := models.NewDefaultConfig()

	if *configFile != "" {
		if err := config.LoadFromFile(*configFile); err != nil {
			return nil, err
		}
	}

	if loaded, err := models.LoadEnvFile(*envFile); err != nil {
		return nil, err
	} else if loaded {
		fmt.Printf("已加载环境文件: %s\n", *envFile)
	}
	config.ApplyEnv()

	if *listenAddr != "" {
		config.ListenAddr = *listenAddr
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

func printWelcome(config *models.Config) {
	fmt.Println()
	color.Cyan("================================")
	color.Cyan("   %s   ", config.AppName)
	color.Cyan("================================")
	fmt.Println()
}
