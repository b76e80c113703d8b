package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/samber/lo"

	"github.com/ccp-p/yt-dictation/pkg/asr"
	"github.com/ccp-p/yt-dictation/pkg/export"
	"github.com/ccp-p/yt-dictation/pkg/media"
	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/scanner"
	"github.com/ccp-p/yt-dictation/pkg/utils"
)

func main() {
	// 解析命令行参数
	audioPath := flag.String("audio", "", "音频文件或目录路径")
	service := flag.String("service", "", "ASR服务选择 (deepgram, openai, auto)，默认取配置")
	useCache := flag.Bool("cache", true, "是否使用缓存")
	writeSRT := flag.Bool("srt", false, "在音频旁写出同名 .srt")
	force := flag.Bool("force", false, "目录模式下已有 .srt 的文件也重新识别")
	configFile := flag.String("config", "", "配置文件路径")
	envFile := flag.String("env", ".env", ".env 文件路径")
	logLevel := flag.String("log-level", utils.LogLevelNormal, "日志级别")
	logFile := flag.String("log-file", "", "日志文件路径")

	flag.Parse()

	// 初始化日志
	if err := utils.InitLogger(*logLevel, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	if *audioPath == "" {
		utils.Log.Fatal("必须指定音频文件或目录路径 (-audio)")
	}

	config := models.NewDefaultConfig()
	if *configFile != "" {
		if err := config.LoadFromFile(*configFile); err != nil {
			utils.Log.Fatalf("加载配置失败: %v", err)
		}
	}
	if _, err := models.LoadEnvFile(*envFile); err != nil {
		utils.Log.Fatalf("加载环境文件失败: %v", err)
	}
	config.ApplyEnv()
	config.UseASRCache = *useCache
	if *service != "" {
		config.ASRService = *service
	}

	selector := asr.NewSelectorFromConfig(config)
	if len(selector.Services()) == 0 {
		utils.Log.Fatal("未配置 DEEPGRAM_API_KEY 或 OPENAI_API_KEY")
	}

	files, err := collectFiles(*audioPath, *force)
	if err != nil {
		utils.Log.Fatalf("读取音频失败: %v", err)
	}
	if len(files) == 0 {
		utils.Log.Info("没有需要识别的音频文件")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(len(files))*10*time.Minute)
	defer cancel()

	// 进度回调
	progressCallback := func(percent int, message string) {
		utils.Log.Infof("进度 [%d%%] %s", percent, message)
	}

	extractor := media.NewExtractor()
	prober := media.NewProber()
	showInfo := prober.Available()
	for i, file := range files {
		color.Cyan("\n[%d/%d] %s", i+1, len(files), file.Name)

		audio := file.Path
		if file.IsVideo {
			path, _, err := extractor.ExtractAudio(ctx, file.Path, filepath.Dir(file.Path))
			if err != nil {
				color.Red("%v", err)
				continue
			}
			audio = path
		}

		if showInfo {
			if info, err := prober.GetMediaInfo(ctx, audio); err != nil {
				utils.Log.Warnf("读取音频信息失败: %v", err)
			} else {
				fmt.Printf("格式: %s, 时长: %s, 采样率: %d Hz, 声道: %d, 大小: %s\n",
					info.Format, utils.FormatTimeDuration(info.Duration), info.SampleRate, info.Channels,
					utils.FormatFileSize(info.Size))
			}
		}

		start := time.Now()
		segments, serviceName, err := selector.RunWithService(ctx, audio, config.ASRService, config.UseASRCache, progressCallback)
		if err != nil {
			color.Red("识别失败: %v", err)
			continue
		}
		utils.Log.Infof("使用 %s 服务识别完成，耗时 %.2f 秒", serviceName, time.Since(start).Seconds())

		if len(segments) == 0 {
			utils.Log.Info("未识别出任何内容")
			continue
		}
		for j, seg := range segments {
			fmt.Printf("[%02d] %s-%s: %s\n", j+1, utils.FormatClock(seg.StartTime), utils.FormatClock(seg.EndTime), seg.Text)
		}

		if *writeSRT {
			exporter := export.NewSRTExporter(filepath.Dir(file.Path))
			if path, err := exporter.ExportSRT(segments, stem(file.Path)); err != nil {
				color.Red("写出字幕失败: %v", err)
			} else {
				color.Green("字幕已写出: %s", path)
			}
		}
	}

	// 输出服务统计信息
	utils.Log.Info("ASR服务统计信息:")
	for name, stat := range selector.GetStats() {
		utils.Log.Infof("%s: 调用次数=%v, 成功率=%v, 可用=%v",
			name, stat["count"], stat["success_rate"], stat["available"])
	}
}

// collectFiles 单个文件直接返回；目录只返回还没有同名字幕的音频
func collectFiles(path string, force bool) ([]scanner.MediaFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	s := scanner.NewMediaScanner()
	if !info.IsDir() {
		ext := strings.ToLower(filepath.Ext(path))
		isVideo := lo.Contains(s.VideoExtensions, ext)
		return []scanner.MediaFile{{
			Path:    path,
			Name:    info.Name(),
			Ext:     ext,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsVideo: isVideo,
			IsAudio: !isVideo,
		}}, nil
	}

	files, err := s.ScanDirectory(path)
	if err != nil {
		return nil, err
	}
	if force {
		return files, nil
	}

	processed := make(map[string]bool)
	for _, f := range files {
		if utils.CheckFileExists(filepath.Join(filepath.Dir(f.Path), stem(f.Path)+".srt")) {
			processed[f.Path] = true
		}
	}
	return s.FilterNewFiles(files, processed), nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
