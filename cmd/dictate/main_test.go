package main

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/yt-dictation/internal/store"
	"github.com/ccp-p/yt-dictation/pkg/dictation"
	"github.com/ccp-p/yt-dictation/pkg/models"
)

type stubPlayer struct{ pos float64 }

func (p *stubPlayer) SeekTo(seconds float64) error  { p.pos = seconds; return nil }
func (p *stubPlayer) Play() error                   { return nil }
func (p *stubPlayer) Pause() error                  { return nil }
func (p *stubPlayer) CurrentTime() (float64, error) { return p.pos, nil }

// idleScheduler 从不触发计时器
type idleScheduler struct{}

func (idleScheduler) AfterFunc(time.Duration, func()) func() bool { return func() bool { return true } }

func TestNextInput(t *testing.T) {
	tests := []struct {
		typed, line, want string
	}{
		{"", "hello", "hello"},
		{"hello", "world", "hello world"},
		{"hello ", "world", "hello world"},
		{"hello", " world", "hello world"},
		{"hel", "+lo", "hello"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextInput(tt.typed, tt.line), "%q + %q", tt.typed, tt.line)
	}
}

func TestResolveEntry(t *testing.T) {
	entries := []store.Entry{{VideoID: "7obx1BmOp3M"}, {VideoID: "abc"}}

	e, ok := resolveEntry(entries, "2")
	require.True(t, ok)
	assert.Equal(t, "abc", e.VideoID)

	e, ok = resolveEntry(entries, "https://youtu.be/7obx1BmOp3M")
	require.True(t, ok)
	assert.Equal(t, "7obx1BmOp3M", e.VideoID)

	_, ok = resolveEntry(entries, "9")
	assert.False(t, ok)
	_, ok = resolveEntry(entries, "zzz")
	assert.False(t, ok)
}

func TestHandleLine(t *testing.T) {
	player := &stubPlayer{}
	segments := []models.Segment{{ID: 0, Start: 0, End: 1, Text: "hello world"}}
	session := dictation.NewController(segments, player, newTerminalView(io.Discard),
		dictation.WithScheduler(idleScheduler{}), dictation.WithPollInterval(0))
	defer session.Close()

	require.NoError(t, session.Start())
	assert.False(t, handleLine(session, "hello"))
	assert.Equal(t, "", session.State().Typed, "播放中不接受输入")

	player.pos = 1.2
	require.NoError(t, session.Tick())
	require.Equal(t, dictation.AwaitingInput, session.State().Phase)

	handleLine(session, "hello")
	assert.Equal(t, "hello", session.State().Typed)

	handleLine(session, "wrld")
	assert.Equal(t, "hello", session.State().Typed)
	assert.Equal(t, 1, session.State().Errors)

	handleLine(session, "world")
	assert.Equal(t, dictation.SegmentComplete, session.State().Phase)

	handleLine(session, ":s")
	assert.Equal(t, 0, session.State().Errors)
	assert.Equal(t, dictation.Listening, session.State().Phase)

	assert.True(t, handleLine(session, ":q"))
}
