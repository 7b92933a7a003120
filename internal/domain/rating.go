package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	MinRating = 0.0
	MaxRating = 10.0
)

// Rating 是一集（或整部剧）的评分：要么是 [0, 10] 内的小数，要么是“未评分”。
// 值类型，抓取后不再变化。
type Rating struct {
	value float64
	rated bool
}

// ratingText 只接受普通十进制文本；ParseFloat 还会接受 NaN/Inf 与十六进制浮点数。
var ratingText = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Unrated 表示页面上没有评分元素（合法的领域结果，不是错误）。
var Unrated = Rating{}

func NewRating(v float64) Rating { return Rating{value: v, rated: true} }

// ParseRating 解析站点上的评分文本（例如 "8.5"）。
// 空串、非十进制数字、超出 [0, 10] 的值都视为 parse 失败。
func ParseRating(s string) (Rating, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rating{}, fmt.Errorf("评分为空")
	}
	if !ratingText.MatchString(s) {
		return Rating{}, fmt.Errorf("评分不是数字：%q", s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Rating{}, fmt.Errorf("评分不是数字：%q", s)
	}
	if v < MinRating || v > MaxRating {
		return Rating{}, fmt.Errorf("评分超出范围 [0, 10]：%q", s)
	}
	return NewRating(v), nil
}

func (r Rating) Rated() bool { return r.rated }

// Value 返回数值；ok=false 表示未评分。
func (r Rating) Value() (v float64, ok bool) { return r.value, r.rated }

// String 与报告格式一致："8.0" / "N/A"。
func (r Rating) String() string {
	if !r.rated {
		return "N/A"
	}
	return strconv.FormatFloat(r.value, 'f', 1, 64)
}
