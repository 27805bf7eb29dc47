package hvdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/John-Robertt/dlmeta/internal/domain"
	providerx "github.com/John-Robertt/dlmeta/internal/provider"
)

const defaultBaseURL = "https://hvdb.me"

// cvXPath 选出作品页上所有指向声优详情的链接（/CV/CVInfo/<id>）。
const cvXPath = `//a[contains(@href, "/CV/CVInfo/")]`

// Provider 实现 HVDB 作品页的声优查询，作为 DLsite 缺失声优时的回退数据源。
//
// 约束：
// - 只按作品号查询，不依赖 locale
// - 声优 ID 直接取 HVDB 自己的编号，不与 DLsite 的名字哈希做统一
type Provider struct {
	// BaseURL 为空时使用 https://hvdb.me。
	BaseURL string
}

func (Provider) Name() string { return "hvdb" }

func (p Provider) baseURL() string {
	u := strings.TrimSpace(p.BaseURL)
	if u == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

// PageURL：<base>/Dashboard/WorkDetails/<id>（不补零）
func (p Provider) PageURL(id domain.WorkID) string {
	return p.baseURL() + "/Dashboard/WorkDetails/" + strconv.Itoa(int(id))
}

// LookupVAs = Fetch + Parse。
func (p Provider) LookupVAs(ctx context.Context, id domain.WorkID, c *http.Client) ([]domain.VA, error) {
	b, _, err := p.Fetch(ctx, id, c)
	if err != nil {
		return nil, err
	}
	return p.Parse(b)
}

func (p Provider) Fetch(ctx context.Context, id domain.WorkID, c *http.Client) ([]byte, string, error) {
	if c == nil {
		return nil, "", errors.New("http client 不能为空")
	}
	if id <= 0 {
		return nil, "", fmt.Errorf("作品号必须为正数：%d", id)
	}
	pageURL := p.PageURL(id)
	b, err := fetchURL(ctx, c, pageURL)
	return b, pageURL, err
}

// Parse 按页面顺序提取声优；页面没有声优链接时返回空切片（不是错误）。
func (Provider) Parse(html []byte) ([]domain.VA, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}
	nodes, err := htmlquery.QueryAll(doc, cvXPath)
	if err != nil {
		return nil, err
	}

	vas := make([]domain.VA, 0, len(nodes))
	for _, n := range nodes {
		name := normSpace(htmlquery.InnerText(n))
		if name == "" {
			continue
		}
		vas = append(vas, domain.VA{
			ID:   trailingInt(htmlquery.SelectAttr(n, "href")),
			Name: name,
		})
	}
	return vas, nil
}

func fetchURL(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, &providerx.TransportError{URL: u, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &providerx.HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &providerx.TransportError{URL: u, Err: err}
	}
	return b, nil
}

// trailingInt 取 URL 最后一个路径段中的数字（忽略 query/fragment 与结尾的 "/"）。
func trailingInt(href string) int64 {
	href = strings.TrimSpace(href)
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		href = href[i+1:]
	}
	n, err := strconv.ParseInt(href, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
