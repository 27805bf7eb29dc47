// Package locale 把显示语言映射为 DLsite 页面上实际使用的字段标签。
//
// DLsite 详情页的表格结构与语言无关，但表头文字随 locale cookie 变化；
// 解析时必须用完全一致的标签文字去定位每一行。
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// Tag 是 DLsite 接受的 locale cookie 取值。
type Tag string

const (
	JaJP Tag = "ja-jp"
	ZhTW Tag = "zh-tw"
	ZhCN Tag = "zh-cn"

	// Default 是无法识别输入时使用的 locale。
	Default = ZhCN
)

// Profile 是一次抽取所用的不可变标签集合。
type Profile struct {
	Tag    Tag
	Cookie string // 形如 "locale=ja-jp"，直接作为 cookie 头的值

	AgeRatingLabel string
	GenreLabel     string
	VALabel        string
	ReleaseLabel   string

	// AdultMarker 是年龄指定一栏表示“18 禁”的字面值。
	AdultMarker string
}

var profiles = map[Tag]Profile{
	JaJP: {
		Tag:            JaJP,
		Cookie:         "locale=ja-jp",
		AgeRatingLabel: "年齢指定",
		GenreLabel:     "ジャンル",
		VALabel:        "声優",
		ReleaseLabel:   "販売日",
		AdultMarker:    "18禁",
	},
	ZhTW: {
		Tag:            ZhTW,
		Cookie:         "locale=zh-tw",
		AgeRatingLabel: "年齡指定",
		GenreLabel:     "分類",
		VALabel:        "聲優",
		ReleaseLabel:   "販賣日",
		AdultMarker:    "18禁",
	},
	ZhCN: {
		Tag:            ZhCN,
		Cookie:         "locale=zh-cn",
		AgeRatingLabel: "年龄指定",
		GenreLabel:     "分类",
		VALabel:        "声优",
		ReleaseLabel:   "贩卖日",
		AdultMarker:    "18禁",
	},
}

// 规范化后的 BCP 47 形式 -> DLsite tag。
var canonical = map[string]Tag{
	language.MustParse("ja-JP").String(): JaJP,
	language.MustParse("zh-TW").String(): ZhTW,
	language.MustParse("zh-CN").String(): ZhCN,
}

// Select 返回 tag 对应的 Profile。纯函数，不会失败：
// 大小写与 "_"/"-" 分隔符不敏感；其它任何输入（含空串）都回落到 Default。
func Select(tag string) Profile {
	return profiles[Normalize(tag)]
}

// Normalize 把输入规范为三个已知 Tag 之一。
func Normalize(tag string) Tag {
	tag = strings.TrimSpace(tag)
	if t := Tag(strings.ToLower(tag)); isKnown(t) {
		return t
	}
	if tag == "" {
		return Default
	}
	lt, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return Default
	}
	if t, ok := canonical[lt.String()]; ok {
		return t
	}
	return Default
}

// All 按固定顺序返回全部 Profile。
func All() []Profile {
	return []Profile{profiles[JaJP], profiles[ZhTW], profiles[ZhCN]}
}

func isKnown(t Tag) bool {
	_, ok := profiles[t]
	return ok
}
