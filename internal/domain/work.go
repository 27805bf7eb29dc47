package domain

import "encoding/json"

// WorkRecord 是一次抽取得到的、与页面语言无关的作品元数据。
//
// 约束：
// - ID 永远等于调用方传入的作品号
// - Tags/VAs 按页面顺序填充，不去重；空时编码为 []（不是 null）
// - Release 要么为空，要么是 10 个字符的 YYYY-MM-DD
type WorkRecord struct {
	ID      WorkID `json:"id"`
	Title   string `json:"title"`
	Circle  Circle `json:"circle"`
	NSFW    bool   `json:"nsfw"`
	Release string `json:"release"`
	Tags    []Tag  `json:"tags"`
	VAs     []VA   `json:"vas"`
}

// NewWorkRecord 构造一个空记录（tags/vas 为非 nil 的空切片）。
func NewWorkRecord(id WorkID) WorkRecord {
	return WorkRecord{
		ID:   id,
		Tags: []Tag{},
		VAs:  []VA{},
	}
}

// Circle 是发行社团。页面没有社团链接时为零值，编码为 {}。
type Circle struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (c Circle) IsZero() bool { return c == Circle{} }

func (c Circle) MarshalJSON() ([]byte, error) {
	if c.IsZero() {
		return []byte("{}"), nil
	}
	type alias Circle
	return json.Marshal(alias(c))
}

// Tag 是 DLsite 的分类标签；ID 取自分类链接 URL 中的数字段。
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// VA 是声优条目。
//
// ID 有两种来源，彼此不做统一：
// - 来自 DLsite 页面：由名字计算出的哈希（方便作为键使用，不保证唯一）
// - 来自 HVDB 回退：HVDB 自身的声优编号（原样保留）
type VA struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
