package book

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MaxKeywords 关键词数量上限,超出部分截断
	MaxKeywords = 30

	minRating = 0.0
	maxRating = 5.0
)

// keywordSeparators 关键词分隔符:逗号/中文逗号/分号/中文分号/空白/换行
var keywordSeparators = regexp.MustCompile(`[,，;；\t\n\r ]+`)

// ParseOptionalNumber 解析可空数字
// 空白或无法解析时返回nil,不返回错误:非法数值只会被当作"未填写"
func ParseOptionalNumber(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ClampRating 规范评分范围到[0,5]
func ClampRating(r *float64) *float64 {
	if r == nil {
		return nil
	}
	v := *r
	switch {
	case v < minRating:
		v = minRating
	case v > maxRating:
		v = maxRating
	}
	return &v
}

// TokenizeKeywords 解析关键词
// 保留原始顺序,不去重,最多保留前MaxKeywords个
func TokenizeKeywords(raw string) []string {
	keywords := make([]string, 0)
	for _, token := range keywordSeparators.Split(raw, -1) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		keywords = append(keywords, token)
		if len(keywords) == MaxKeywords {
			break
		}
	}
	return keywords
}

// normalizeTitle 去除标题首尾空白
func normalizeTitle(title string) string {
	return strings.TrimSpace(title)
}

// validateTitle 标题不能为空(含纯空白)
func validateTitle(title string) error {
	if normalizeTitle(title) == "" {
		return ErrTitleRequired
	}
	return nil
}
