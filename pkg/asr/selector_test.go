package asr

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockASRService 模拟识别服务
type MockASRService struct {
	mock.Mock
}

func (m *MockASRService) GetResult(ctx context.Context, callback ProgressCallback) ([]models.DataSegment, error) {
	args := m.Called(ctx, callback)
	segs, _ := args.Get(0).([]models.DataSegment)
	return segs, args.Error(1)
}

func creatorFor(svc ASRService) ServiceCreator {
	return func(string, bool) (ASRService, error) { return svc, nil }
}

func TestSelectByRoundRobin(t *testing.T) {
	s := NewASRSelectorWithRand(rand.New(rand.NewSource(1)))
	s.RegisterService("a", creatorFor(nil), 1)
	s.RegisterService("b", creatorFor(nil), 1)

	var order []string
	for i := 0; i < 4; i++ {
		name, _, ok := s.SelectService(StrategyRoundRobin)
		require.True(t, ok)
		order = append(order, name)
	}
	assert.Equal(t, []string{"a", "b", "a", "b"}, order)
	assert.Equal(t, 2, s.GetStats()["a"]["count"])
}

func TestSelectByWeightedRandom(t *testing.T) {
	s := NewASRSelectorWithRand(rand.New(rand.NewSource(42)))
	s.RegisterService("heavy", creatorFor(nil), 9)
	s.RegisterService("light", creatorFor(nil), 1)
	s.RegisterService("zero", creatorFor(nil), 0)

	counts := map[string]int{}
	for i := 0; i < 1000; i++ {
		name, _, ok := s.SelectService(StrategyWeightedRandom)
		require.True(t, ok)
		counts[name]++
	}
	assert.Greater(t, counts["heavy"], counts["light"])
	assert.Zero(t, counts["zero"])
}

func TestSelectEmpty(t *testing.T) {
	s := NewASRSelector()
	_, _, ok := s.SelectService(StrategyWeightedRandom)
	assert.False(t, ok)

	_, _, err := s.RunWithService(context.Background(), "x.mp3", models.ASRServiceAuto, false, nil)
	assert.ErrorIs(t, err, ErrNoService)

	_, _, err = s.RunWithService(context.Background(), "x.mp3", "deepgram", false, nil)
	assert.Error(t, err)
}

func TestReportResultDisablesService(t *testing.T) {
	s := NewASRSelector()
	s.RegisterService("flaky", creatorFor(nil), 1)

	for i := 0; i < 6; i++ {
		s.ReportResult("flaky", false)
	}
	assert.Equal(t, false, s.GetStats()["flaky"]["available"])
	_, _, ok := s.SelectService(StrategyRoundRobin)
	assert.False(t, ok)

	s.ReportResult("flaky", true)
	assert.Equal(t, true, s.GetStats()["flaky"]["available"])
}

func TestRunWithServiceAutoFallback(t *testing.T) {
	failing := new(MockASRService)
	failing.On("GetResult", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	working := new(MockASRService)
	want := []models.DataSegment{{Text: "hi", StartTime: 0, EndTime: 1}}
	working.On("GetResult", mock.Anything, mock.Anything).Return(want, nil)

	// 只有 failing 有权重，保证首选失败
	s := NewASRSelectorWithRand(rand.New(rand.NewSource(7)))
	s.RegisterService("failing", creatorFor(failing), 1)
	s.RegisterService("working", creatorFor(working), 0)

	segments, used, err := s.RunWithService(context.Background(), "x.mp3", models.ASRServiceAuto, false, nil)
	require.NoError(t, err)
	assert.Equal(t, want, segments)
	assert.Equal(t, "working", used)
	failing.AssertExpectations(t)
	working.AssertExpectations(t)
}

func TestRunWithServiceNamed(t *testing.T) {
	empty := new(MockASRService)
	empty.On("GetResult", mock.Anything, mock.Anything).Return([]models.DataSegment{}, nil)

	s := NewASRSelector()
	s.RegisterService("deepgram", creatorFor(empty), 1)

	_, used, err := s.RunWithService(context.Background(), "x.mp3", "deepgram", false, nil)
	require.Error(t, err, "空结果视为失败")
	assert.Equal(t, "deepgram", used)
	assert.Equal(t, "0.0%", s.GetStats()["deepgram"]["success_rate"])
}

func TestNewSelectorFromConfig(t *testing.T) {
	config := models.NewDefaultConfig()
	assert.Empty(t, NewSelectorFromConfig(config).Services())

	config.DeepgramAPIKey = "dg"
	config.OpenAIAPIKey = "sk"
	assert.Equal(t, []string{"deepgram", "openai"}, NewSelectorFromConfig(config).Services())
}
