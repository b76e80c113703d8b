package export

import (
	"os"
	"testing"

	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/srt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSRTTime(t *testing.T) {
	e := NewSRTExporter(t.TempDir())
	assert.Equal(t, "00:00:01,040", e.FormatSRTTime(1.04))
	assert.Equal(t, "00:00:00,290", e.FormatSRTTime(0.29), "0.29*1000 不应被截断成 289")
	assert.Equal(t, "01:02:03,456", e.FormatSRTTime(3723.456))
}

func TestGenerateSRTContent(t *testing.T) {
	e := NewSRTExporter(t.TempDir())
	content := e.GenerateSRTContent([]models.DataSegment{
		{Text: "Hello there", StartTime: 0.08, EndTime: 1.36},
		{Text: "   ", StartTime: 1.36, EndTime: 2},
		{Text: "How\nare  you", StartTime: 2, EndTime: 2},
	})

	want := "1\n00:00:00,080 --> 00:00:01,360\nHello there\n\n" +
		"2\n00:00:02,000 --> 00:00:03,000\nHow are you\n\n"
	assert.Equal(t, want, content)
}

func TestExportSRTParsesBack(t *testing.T) {
	dir := t.TempDir()
	e := NewSRTExporter(dir)

	path, err := e.ExportSRT([]models.DataSegment{
		{Text: "china", StartTime: 0, EndTime: 1.04},
		{Text: "is big", StartTime: 1.04, EndTime: 2.5},
	}, "abc123")
	require.NoError(t, err)
	assert.Equal(t, e.SRTPath("abc123"), path)
	assert.NoFileExists(t, path+".part")

	segments, err := srt.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []models.Segment{
		{ID: 0, Start: 0, End: 1.04, Text: "china"},
		{ID: 1, Start: 1.04, End: 2.5, Text: "is big"},
	}, segments)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	e := NewJSONExporter(dir)

	result := e.GenerateJSONContent("abc", "Title", "en", []models.Segment{
		{ID: 0, Start: 0, End: 1, Text: "hello"},
		{ID: 1, Start: 1, End: 2, Text: "world"},
	})
	assert.Equal(t, "hello world", result.FullText)

	empty := e.GenerateJSONContent("abc", "", "", nil)
	assert.NotNil(t, empty.Segments)

	path, err := e.ExportJSON("abc", "Title", "en", result.Segments)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
