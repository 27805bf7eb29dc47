package provider

import (
	"context"
	"net/http"

	"github.com/John-Robertt/dlmeta/internal/domain"
	"github.com/John-Robertt/dlmeta/internal/locale"
)

// PageProvider 把“站点变化”限制在 provider 包内部；抽取流程只依赖统一接口与稳定的 WorkRecord。
//
// 约束：
// - Fetch 只发一次 GET，不做缓存、不做重试、不做限速
// - Parse 必须是纯函数：相同输入 => 相同输出
// - pageURL 必须是作品详情页的规范 URL（标题定位依赖它）
type PageProvider interface {
	Name() string
	Fetch(ctx context.Context, id domain.WorkID, prof locale.Profile, c *http.Client) (html []byte, pageURL string, err error)
	Parse(id domain.WorkID, html []byte, pageURL string, prof locale.Profile) (domain.WorkRecord, error)
}

// VASource 是按作品号查询声优的回退数据源。
//
// 返回的 VA.ID 由数据源自己决定，调用方只做透传。
type VASource interface {
	Name() string
	LookupVAs(ctx context.Context, id domain.WorkID, c *http.Client) ([]domain.VA, error)
}
