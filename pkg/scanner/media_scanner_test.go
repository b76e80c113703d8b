package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 创建测试目录和测试文件
func setupTestDirectory(t *testing.T, testFiles []string) string {
	tempDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tempDir, "subfolder"), 0755); err != nil {
		t.Fatalf("创建子文件夹失败: %v", err)
	}

	for _, fileName := range testFiles {
		filePath := filepath.Join(tempDir, fileName)
		if err := os.WriteFile(filePath, []byte("test content"), 0644); err != nil {
			t.Fatalf("创建测试文件失败 %s: %v", fileName, err)
		}
	}
	return tempDir
}

func TestScanDirectory(t *testing.T) {
	testDir := setupTestDirectory(t, []string{
		"audio1.mp3", "audio2.wav", "video1.mp4", "document.pdf", "image.jpg", ".hidden.mp3", "subfolder/a.mp3",
	})

	scanner := NewMediaScanner()
	files, err := scanner.ScanDirectory(testDir)
	if err != nil {
		t.Fatalf("扫描目录失败: %v", err)
	}

	// 只有：audio1.mp3, audio2.wav, video1.mp4
	if len(files) != 3 {
		t.Errorf("期望找到 3 个媒体文件，实际找到 %d 个", len(files))
	}

	foundAudio := 0
	foundVideo := 0
	for _, file := range files {
		if file.IsAudio {
			foundAudio++
		}
		if file.IsVideo {
			foundVideo++
		}
		if file.Name == "" || file.Path == "" || file.Ext == "" || file.Size == 0 {
			t.Errorf("文件元数据不完整: %+v", file)
		}
	}

	assert.Equal(t, 2, foundAudio, "音频文件数量")
	assert.Equal(t, 1, foundVideo, "视频文件数量")
}

func TestFilterNewFiles(t *testing.T) {
	testFiles := []MediaFile{
		{Path: "/path/to/file1.mp3", Name: "file1.mp3", IsAudio: true},
		{Path: "/path/to/file2.mp4", Name: "file2.mp4", IsVideo: true},
		{Path: "/path/to/file3.wav", Name: "file3.wav", IsAudio: true},
	}
	processedPaths := map[string]bool{
		"/path/to/file1.mp3": true, // 已处理
	}

	newFiles := NewMediaScanner().FilterNewFiles(testFiles, processedPaths)
	if len(newFiles) != 2 {
		t.Errorf("期望过滤后剩余 2 个文件，实际有 %d 个", len(newFiles))
	}
	for _, file := range newFiles {
		if file.Path == "/path/to/file1.mp3" {
			t.Errorf("已处理文件未被过滤: %s", file.Path)
		}
	}
}

func TestScanLibrary(t *testing.T) {
	dir := setupTestDirectory(t, []string{
		"7obx1BmOp3M.mp3", "7obx1BmOp3M.srt", "7obx1BmOp3M.info.json",
		"onlyAudio.mp3",
		"onlySrt.srt",
		"cache.json",
		"bad name.mp3",
	})

	items, err := NewMediaScanner().ScanLibrary(dir)
	require.NoError(t, err)
	require.Len(t, items, 3)

	byID := map[string]LibraryItem{}
	for _, it := range items {
		byID[it.VideoID] = it
	}

	full := byID["7obx1BmOp3M"]
	assert.True(t, full.Complete())
	assert.Equal(t, filepath.Join(dir, "7obx1BmOp3M.info.json"), full.InfoPath)
	assert.False(t, full.ModTime.IsZero())

	assert.False(t, byID["onlyAudio"].Complete())
	assert.Empty(t, byID["onlyAudio"].SRTPath)
	assert.False(t, byID["onlySrt"].Complete())

	// 目录不存在时返回空
	items, err = NewMediaScanner().ScanLibrary(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.Empty(t, items)
}
