package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimeDuration(t *testing.T) {
	assert.Equal(t, "5s", FormatTimeDuration(5))
	assert.Equal(t, "2m 5s", FormatTimeDuration(125))
	assert.Equal(t, "1h 0m 1s", FormatTimeDuration(3601))
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00.0", FormatClock(0))
	assert.Equal(t, "00:05.1", FormatClock(5.12))
	assert.Equal(t, "01:02.5", FormatClock(62.5))
	assert.Equal(t, "00:00.0", FormatClock(-3))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512.00 B", FormatFileSize(512))
	assert.Equal(t, "1.50 KB", FormatFileSize(1536))
	assert.Equal(t, "2.00 MB", FormatFileSize(2*1024*1024))
}
