package dictation

// PrefixResult 前缀校验结果
type PrefixResult struct {
	Accepted bool    // typed 是否为 expected 的前缀
	Progress float64 // 已接受部分占全文的百分比，0-100
	Complete bool    // typed 与 expected 完全相同
	Matched  int     // 与 expected 相同的前缀长度（字符数）
}

// CheckPrefix 逐字比较 typed 与 expected 的同长前缀
// 区分大小写与空白，长度按字符（rune）计算
func CheckPrefix(expected, typed string) PrefixResult {
	ex := []rune(expected)
	ty := []rune(typed)

	matched := 0
	for matched < len(ex) && matched < len(ty) && ex[matched] == ty[matched] {
		matched++
	}

	res := PrefixResult{
		Accepted: matched == len(ty),
		Matched:  matched,
		Progress: percent(matched, len(ex)),
	}
	res.Complete = res.Accepted && len(ty) == len(ex)
	return res
}

func percent(n, total int) float64 {
	if total <= 0 {
		return 100
	}
	p := float64(n) * 100 / float64(total)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
