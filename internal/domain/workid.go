package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// WorkID 是 DLsite 作品的数字主键（RJ 号去掉前缀后的数字部分）。
//
// 约束：必须为正数；调用方传入什么，WorkRecord.ID 就是什么。
type WorkID int

var workIDRE = regexp.MustCompile(`^(?i:rj)?([0-9]{1,10})$`)

// ParseWorkID 解析 "123456" / "RJ123456" / "rj01234567" 这类输入。
func ParseWorkID(s string) (WorkID, error) {
	s = strings.TrimSpace(s)
	m := workIDRE.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("无效的作品号：%q", s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("无效的作品号：%q：%w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("作品号必须为正数：%q", s)
	}
	return WorkID(n), nil
}

// RJCode 返回 "RJ" + 至少 6 位补零的数字。
// 补零只会在左侧补齐，超过 6 位的 id 原样保留（例如 RJ1000000）。
func (id WorkID) RJCode() string {
	return fmt.Sprintf("RJ%06d", int(id))
}

func (id WorkID) String() string { return id.RJCode() }
