package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ffprobeJSON = `{
  "programs": [],
  "streams": [
    {"codec_type": "video", "channels": 0},
    {"codec_type": "audio", "sample_rate": "44100", "channels": 2}
  ],
  "format": {"format_name": "mp3", "duration": "212.480000", "size": "5099520", "bit_rate": "192000"}
}`

func TestGetMediaInfo(t *testing.T) {
	var gotArgs []string
	p := &Prober{
		Binary: "ffprobe",
		Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotArgs = args
			return []byte(ffprobeJSON), nil
		},
	}

	info, err := p.GetMediaInfo(context.Background(), "/audios/abc.mp3")
	require.NoError(t, err)
	assert.Equal(t, "abc.mp3", info.Name)
	assert.Equal(t, "mp3", info.Format)
	assert.Equal(t, 212.48, info.Duration)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 2, info.Channels)
	assert.Equal(t, 192, info.Bitrate)
	assert.Equal(t, int64(5099520), info.Size)
	assert.Equal(t, "/audios/abc.mp3", gotArgs[len(gotArgs)-1])

	d, err := p.Duration(context.Background(), "/audios/abc.mp3")
	require.NoError(t, err)
	assert.Equal(t, 212.48, d)
}

func TestGetMediaInfoErrors(t *testing.T) {
	p := &Prober{Binary: "ffprobe", Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}}
	_, err := p.GetMediaInfo(context.Background(), "x.mp3")
	assert.Error(t, err)

	p.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("not json"), nil
	}
	_, err = p.Duration(context.Background(), "x.mp3")
	assert.Error(t, err)
}
