package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/yt-dictation/pkg/models"
)

func TestCollectURLs(t *testing.T) {
	list := filepath.Join(t.TempDir(), "links.txt")
	content := "# 周一\nhttps://youtu.be/7obx1BmOp3M\n\n  https://www.youtube.com/watch?v=abcdefghijk  \nhttps://www.youtube.com/watch?v=7obx1BmOp3M\n"
	require.NoError(t, os.WriteFile(list, []byte(content), 0644))

	urls, err := collectURLs([]string{"https://youtu.be/zzzzzzzzzzz"}, list)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://youtu.be/zzzzzzzzzzz",
		"https://youtu.be/7obx1BmOp3M",
		"https://www.youtube.com/watch?v=abcdefghijk",
	}, urls)

	_, err = collectURLs(nil, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestPrintSummaryCountsFailures(t *testing.T) {
	results := []models.Result{
		{VideoID: "a", Title: "A", SegmentCount: 3},
		{VideoID: "b", Error: "yt-dlp 下载失败"},
		{VideoID: "c", Cached: true, SegmentCount: 1},
	}
	assert.Equal(t, 1, printSummary(results, "auto"))
	assert.Equal(t, "auto", results[0].Service)
}
