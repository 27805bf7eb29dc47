package dlsite

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// extractTrailingID 取 s 末尾倒数 offsetFromEnd 个字符起、长度为 length 的子串。
//
// DLsite 把分类/社团编号嵌在 URL 路径的固定位置，这里把这种“按位置截取”集中到一处：
// 站点 URL 布局变化时只需要改调用参数。越界时按可用范围截断，不报错。
func extractTrailingID(s string, offsetFromEnd, length int) string {
	r := []rune(s)
	start := len(r) - offsetFromEnd
	if start < 0 {
		start = 0
	}
	if length <= 0 || start >= len(r) {
		return ""
	}
	end := start + length
	if end > len(r) {
		end = len(r)
	}
	return string(r[start:end])
}

// leadingInt 解析 s 开头的十进制整数（允许前导空白与符号），其余部分忽略。
// 没有任何数字时返回 ok=false。
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0, false
	}
	n, err := strconv.Atoi(s[:j])
	if err != nil {
		return 0, false
	}
	return n, true
}

// digitsOnly 删除所有非 ASCII 数字字符。
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatRelease 把 8 位数字串格式化为 YYYY-MM-DD；其它长度视为无法解析，返回空串。
func FormatRelease(digits string) string {
	if len(digits) != 8 {
		return ""
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return ""
		}
	}
	return digits[:4] + "-" + digits[4:6] + "-" + digits[6:]
}

// HashName 把声优名映射为稳定的非负整数，作为 DLsite 来源声优的便捷 ID。
//
// 按 UTF-16 码元迭代 h = h*31 + c 的变体（h<<5 - h），最后折叠为 int32 取绝对值。
// 与历史数据保持一致；不同名字允许碰撞。
func HashName(name string) int64 {
	var h int64
	for _, c := range utf16.Encode([]rune(name)) {
		h = int64(int32(h)<<5) - h + int64(c)
	}
	v := int64(int32(h))
	if v < 0 {
		v = -v
	}
	return v
}
