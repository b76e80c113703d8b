package dictation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPrefix(t *testing.T) {
	cases := []struct {
		name     string
		expected string
		typed    string
		want     PrefixResult
	}{
		{"空输入", "hello", "", PrefixResult{Accepted: true, Progress: 0, Matched: 0}},
		{"一个字符", "hello", "h", PrefixResult{Accepted: true, Progress: 20, Matched: 1}},
		{"三个字符", "hello", "hel", PrefixResult{Accepted: true, Progress: 60, Matched: 3}},
		{"错误字符", "hello", "helj", PrefixResult{Accepted: false, Progress: 60, Matched: 3}},
		{"完成", "hello", "hello", PrefixResult{Accepted: true, Progress: 100, Complete: true, Matched: 5}},
		{"过长", "hello", "hello!", PrefixResult{Accepted: false, Progress: 100, Matched: 5}},
		{"大小写敏感", "Hello", "h", PrefixResult{Accepted: false, Progress: 0, Matched: 0}},
		{"空白敏感", "a b", "a  ", PrefixResult{Accepted: false, Progress: 200.0 / 3, Matched: 2}},
		{"中间字符被改", "hello", "jel", PrefixResult{Accepted: false, Progress: 0, Matched: 0}},
		{"多字节字符", "café", "caf", PrefixResult{Accepted: true, Progress: 75, Matched: 3}},
		{"多字节完成", "café", "café", PrefixResult{Accepted: true, Progress: 100, Complete: true, Matched: 4}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, CheckPrefix(c.expected, c.typed))
		})
	}
}

func TestCheckPrefixEmptyExpected(t *testing.T) {
	res := CheckPrefix("", "")
	assert.True(t, res.Accepted)
	assert.True(t, res.Complete)
	assert.Equal(t, 100.0, res.Progress)

	res = CheckPrefix("", "x")
	assert.False(t, res.Accepted)
	assert.False(t, res.Complete)
}

func TestPercentClamped(t *testing.T) {
	assert.Equal(t, 0.0, percent(-1, 5))
	assert.Equal(t, 100.0, percent(7, 5))
	assert.Equal(t, 40.0, percent(2, 5))
}
