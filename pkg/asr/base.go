package asr

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/utils"
)

// BaseASR 提供基础ASR功能的结构体
type BaseASR struct {
	AudioPath  string // 音频文件路径
	FileBinary []byte // 文件二进制内容
	CRC32      uint32 // CRC32校验值
	CRC32Hex   string // 文件CRC32校验和（十六进制）
	UseCache   bool   // 是否使用缓存
	CacheDir   string // 识别结果缓存目录
}

// NewBaseASR 创建一个新的BaseASR实例
func NewBaseASR(audioPath string, useCache bool, cacheDir string) (*BaseASR, error) {
	baseASR := &BaseASR{
		AudioPath: audioPath,
		UseCache:  useCache && cacheDir != "",
		CacheDir:  cacheDir,
	}

	if err := baseASR.loadFile(); err != nil {
		return nil, err
	}

	baseASR.calculateCRC32()
	return baseASR, nil
}

// loadFile 加载音频文件到内存
func (b *BaseASR) loadFile() error {
	info, err := os.Stat(b.AudioPath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("无效的音频路径: %s", b.AudioPath)
	}

	utils.Log.Infof("从文件读取音频数据: %s", b.AudioPath)
	b.FileBinary, err = os.ReadFile(b.AudioPath)
	if err != nil {
		return fmt.Errorf("读取音频文件失败: %w", err)
	}
	if len(b.FileBinary) == 0 {
		return fmt.Errorf("音频文件为空: %s", b.AudioPath)
	}
	return nil
}

// calculateCRC32 计算文件的CRC32校验和
func (b *BaseASR) calculateCRC32() {
	b.CRC32 = crc32.ChecksumIEEE(b.FileBinary)
	b.CRC32Hex = fmt.Sprintf("%08x", b.CRC32)
	utils.Log.Debugf("计算的CRC32校验和: %s", b.CRC32Hex)
}

// GetCacheKey 获取缓存键名
func (b *BaseASR) GetCacheKey(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, b.CRC32Hex)
}

func (b *BaseASR) cachePath(cacheKey string) string {
	return filepath.Join(b.CacheDir, cacheKey+".json")
}

// LoadFromCache 从缓存加载识别结果
func (b *BaseASR) LoadFromCache(cacheKey string) ([]models.DataSegment, bool) {
	if !b.UseCache {
		return nil, false
	}

	var segments []models.DataSegment
	found, err := utils.LoadJSONFile(b.cachePath(cacheKey), &segments)
	if err != nil {
		utils.Log.Warnf("读取识别缓存失败，忽略缓存: %v", err)
		return nil, false
	}
	if !found || len(segments) == 0 {
		utils.Log.Debugf("缓存文件不存在: %s", b.cachePath(cacheKey))
		return nil, false
	}
	return segments, true
}

// SaveToCache 保存识别结果到缓存
func (b *BaseASR) SaveToCache(cacheKey string, segments []models.DataSegment) error {
	if !b.UseCache || len(segments) == 0 {
		return nil
	}

	if err := utils.SaveJSONFile(b.cachePath(cacheKey), segments); err != nil {
		return fmt.Errorf("保存识别缓存失败: %w", err)
	}
	return nil
}
