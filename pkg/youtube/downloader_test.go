package youtube

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeYtDlp 模拟 yt-dlp：写出 mp3 与 info.json
func fakeYtDlp(t *testing.T, dir string, calls *[][]string) CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, append([]string{name}, args...))
		id := "7obx1BmOp3M"
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".mp3"), []byte("mp3"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".info.json"), []byte(`{"title":"Learn English"}`), 0644))
		return []byte("[download] 100%"), nil
	}
}

func TestDownload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audios")
	d := NewDownloader("", dir, "")
	var calls [][]string
	d.Run = fakeYtDlp(t, dir, &calls)

	res, err := d.Download(context.Background(), "7obx1BmOp3M")
	require.NoError(t, err)
	assert.Equal(t, "Learn English", res.Title)
	assert.Equal(t, filepath.Join(dir, "7obx1BmOp3M.mp3"), res.AudioPath)
	assert.False(t, res.Reused)
	require.Len(t, calls, 1)
	assert.Equal(t, "yt-dlp", calls[0][0])
	assert.Contains(t, calls[0], "bestaudio/best")
	assert.Contains(t, calls[0], "192K")
	assert.Contains(t, calls[0], "--write-info-json")
	assert.Contains(t, calls[0], filepath.Join(dir, "7obx1BmOp3M.%(ext)s"))

	// 第二次复用已有音频
	res, err = d.Download(context.Background(), "7obx1BmOp3M")
	require.NoError(t, err)
	assert.True(t, res.Reused)
	assert.Equal(t, "Learn English", res.Title)
	assert.Len(t, calls, 1)
}

func TestDownloadTitleFallback(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader("yt-dlp", dir, "128")
	require.NoError(t, os.WriteFile(d.AudioPath("abc"), []byte("mp3"), 0644))

	res, err := d.Download(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Title, "没有 info.json 时标题为视频ID")

	require.NoError(t, os.WriteFile(d.InfoPath("abc"), []byte("{broken"), 0644))
	assert.Equal(t, "abc", d.Title("abc"))
}

func TestDownloadFailure(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader("yt-dlp", dir, "192")
	d.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("ERROR: Video unavailable"), errors.New("exit status 1")
	}

	_, err := d.Download(context.Background(), "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Video unavailable")

	// 命令成功但没有生成文件
	d.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) { return nil, nil }
	_, err = d.Download(context.Background(), "abc")
	assert.Error(t, err)

	_, err = d.Download(context.Background(), "../x")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestCheckBinaryMissing(t *testing.T) {
	d := NewDownloader("definitely-not-a-real-binary-xyz", t.TempDir(), "")
	assert.Error(t, d.CheckBinary())
}
