package dictation

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Hint 输入被拒绝时的提示，不包含原文
type Hint struct {
	Similarity  float64 // 出错单词与原文对应单词的 Jaro-Winkler 相似度，0-1
	SoundsAlike bool    // 两个单词的 Double Metaphone 编码相同
}

// WordHint 找到 typed 中第一个出错的单词，和 expected 同一位置的单词比较
// 比较不区分大小写；typed 被接受时返回相似度 1
func WordHint(expected, typed string) Hint {
	res := CheckPrefix(expected, typed)
	if res.Accepted {
		return Hint{Similarity: 1}
	}

	ex := []rune(expected)
	ty := []rune(typed)
	if res.Matched >= len(ex) {
		return Hint{}
	}
	start := res.Matched
	for start > 0 && ty[start-1] != ' ' {
		start--
	}

	typedWord := strings.ToLower(string(ty[start:wordEnd(ty, start)]))
	expectedWord := strings.ToLower(string(ex[start:wordEnd(ex, start)]))
	if typedWord == "" || expectedWord == "" {
		return Hint{}
	}

	tp, _ := matchr.DoubleMetaphone(typedWord)
	ep, _ := matchr.DoubleMetaphone(expectedWord)
	return Hint{
		Similarity:  matchr.JaroWinkler(typedWord, expectedWord, false),
		SoundsAlike: tp != "" && tp == ep,
	}
}

func wordEnd(r []rune, from int) int {
	for from < len(r) && r[from] != ' ' {
		from++
	}
	return from
}
