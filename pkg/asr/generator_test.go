package asr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ccp-p/yt-dictation/pkg/export"
	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/srt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newGenerator(t *testing.T, svc ASRService) (*SRTGenerator, string) {
	dir := t.TempDir()
	s := NewASRSelector()
	s.RegisterService("mock", creatorFor(svc), 1)
	return &SRTGenerator{
		Selector: s,
		Exporter: export.NewSRTExporter(dir),
		Service:  "mock",
	}, dir
}

func TestGenerateSRT(t *testing.T) {
	svc := new(MockASRService)
	svc.On("GetResult", mock.Anything, mock.Anything).Return([]models.DataSegment{
		{Text: "china", StartTime: 0, EndTime: 1.04},
	}, nil).Once()

	g, dir := newGenerator(t, svc)
	path, err := g.GenerateSRT(context.Background(), "abc", filepath.Join(dir, "abc.mp3"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.srt"), path)

	segments, err := srt.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []models.Segment{{ID: 0, Start: 0, End: 1.04, Text: "china"}}, segments)

	// 字幕已存在时不再识别
	_, err = g.GenerateSRT(context.Background(), "abc", filepath.Join(dir, "abc.mp3"))
	require.NoError(t, err)
	svc.AssertNumberOfCalls(t, "GetResult", 1)
}

func TestGenerateSRTFailure(t *testing.T) {
	svc := new(MockASRService)
	svc.On("GetResult", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	g, dir := newGenerator(t, svc)
	_, err := g.GenerateSRT(context.Background(), "abc", filepath.Join(dir, "abc.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	_, statErr := os.Stat(filepath.Join(dir, "abc.srt"))
	assert.True(t, os.IsNotExist(statErr))
}
