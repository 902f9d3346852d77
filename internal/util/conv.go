package util

import (
	"strconv"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// Percentage 保留两位小数
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	v := float64(score) * 100 / float64(total)
	s := strconv.FormatFloat(v, 'f', 2, 64)
	p, _ := strconv.ParseFloat(s, 64)
	return p
}
