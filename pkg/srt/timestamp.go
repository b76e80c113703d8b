package srt

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedTimestamp 时间戳格式错误
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// MalformedTimestampError 携带无法解析的原始值
type MalformedTimestampError struct {
	Value string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("时间戳格式错误: %q", e.Value)
}

// Is 使 errors.Is(err, ErrMalformedTimestamp) 成立
func (e *MalformedTimestampError) Is(target error) bool {
	return target == ErrMalformedTimestamp
}

// 小时至少两位，分、秒两位，毫秒三位
var timestampPattern = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2}),(\d{3})$`)

// maxHours 小时字段上限，超过按格式错误处理，毫秒数不会溢出
const maxHours = 999999

// ParseTimestamp 把 HH:MM:SS,mmm 转换为秒
// 超出常规范围的分、秒不报错，只做算术
func ParseTimestamp(s string) (float64, error) {
	m := timestampPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, &MalformedTimestampError{Value: s}
	}

	var fields [4]int64
	for i := range fields {
		v, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, &MalformedTimestampError{Value: s}
		}
		fields[i] = v
	}
	if fields[0] > maxHours {
		return 0, &MalformedTimestampError{Value: s}
	}

	totalMs := ((fields[0]*60+fields[1])*60+fields[2])*1000 + fields[3]
	return float64(totalMs) / 1000, nil
}

// FormatTimestamp 把秒格式化为 HH:MM:SS,mmm，四舍五入到毫秒
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int64(seconds*1000 + 0.5)
	ms := totalMs % 1000
	totalSec := totalMs / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", totalSec/3600, (totalSec%3600)/60, totalSec%60, ms)
}
