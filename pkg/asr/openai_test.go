package asr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGetResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		assert.Equal(t, "en", r.FormValue("language"))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "abc.mp3", header.Filename)

		io.WriteString(w, `{"text":"Hello world. Bye.","language":"english","segments":[
			{"start":0.0,"end":1.2,"text":" Hello world."},
			{"start":1.2,"end":1.3,"text":"  "},
			{"start":1.3,"end":2.0,"text":" Bye."}]}`)
	}))
	defer srv.Close()

	o, err := NewOpenAIASR(writeAudio(t), false, "", "sk-test", "", "en", srv.URL)
	require.NoError(t, err)

	segments, err := o.GetResult(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []models.DataSegment{
		{Text: "Hello world.", StartTime: 0, EndTime: 1.2},
		{Text: "Bye.", StartTime: 1.3, EndTime: 2.0},
	}, segments)
}

func TestOpenAIErrors(t *testing.T) {
	_, err := NewOpenAIASR(writeAudio(t), false, "", "", "", "", "")
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, "rate limited")
	}))
	defer srv.Close()

	o, err := NewOpenAIASR(writeAudio(t), false, "", "k", "", "", srv.URL)
	require.NoError(t, err)
	_, err = o.GetResult(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
