package dlsite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/John-Robertt/dlmeta/internal/domain"
	"github.com/John-Robertt/dlmeta/internal/locale"
	providerx "github.com/John-Robertt/dlmeta/internal/provider"
)

const defaultBaseURL = "https://www.dlsite.com"

// Provider 实现 DLsite 作品页的抓取与 HTML 解析。
//
// 约束：
// - Fetch 只发一次 GET，只带 locale cookie；不做缓存/重试/限速
// - Parse 必须是纯函数（依赖输入 html + pageURL + Profile）
type Provider struct {
	// BaseURL 允许替换站点域名（镜像或测试服务器）。为空时使用 https://www.dlsite.com。
	BaseURL string
}

func (Provider) Name() string { return "dlsite" }

func (p Provider) baseURL() string {
	u := strings.TrimSpace(p.BaseURL)
	if u == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

// PageURL 返回作品详情页的规范 URL：<base>/maniax/work/=/product_id/RJ<6 位补零>.html
func (p Provider) PageURL(id domain.WorkID) string {
	return p.baseURL() + "/maniax/work/=/product_id/" + id.RJCode() + ".html"
}

// Fetch 直接进入详情页，cookie 头固定为 Profile.Cookie。
func (p Provider) Fetch(ctx context.Context, id domain.WorkID, prof locale.Profile, c *http.Client) ([]byte, string, error) {
	if c == nil {
		return nil, "", errors.New("http client 不能为空")
	}
	if id <= 0 {
		return nil, "", fmt.Errorf("作品号必须为正数：%d", id)
	}

	pageURL := p.PageURL(id)
	b, err := fetchURL(ctx, c, pageURL, prof.Cookie)
	return b, pageURL, err
}

// Parse 把 DLsite 详情页 HTML 解析为 WorkRecord。
// 每个字段独立提取，缺失时保持零值；只有 tags 与 vas 同时为空才视为解析失败。
func (Provider) Parse(id domain.WorkID, html []byte, pageURL string, prof locale.Profile) (domain.WorkRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return domain.WorkRecord{}, err
	}

	work := domain.NewWorkRecord(id)

	work.Title = doc.Find(`a[href="` + cssQuote(pageURL) + `"]`).First().Text()
	work.Circle = parseCircle(doc)

	outline := outlineTable(doc)

	work.NSFW = outline.value(prof.AgeRatingLabel).Text() == prof.AdultMarker
	work.Release = FormatRelease(digitsOnly(outline.value(prof.ReleaseLabel).Text()))

	outline.value(prof.GenreLabel).ChildrenFiltered("div").ChildrenFiltered("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		tagID, _ := leadingInt(extractTrailingID(href, 19, 3))
		work.Tags = append(work.Tags, domain.Tag{ID: tagID, Name: a.Text()})
	})

	outline.value(prof.VALabel).ChildrenFiltered("a").Each(func(_ int, a *goquery.Selection) {
		name := a.Text()
		work.VAs = append(work.VAs, domain.VA{ID: HashName(name), Name: name})
	})

	if len(work.Tags) == 0 && len(work.VAs) == 0 {
		return domain.WorkRecord{}, &providerx.ParseError{URL: pageURL}
	}
	return work, nil
}

func parseCircle(doc *goquery.Document) domain.Circle {
	links := doc.Find(`span[class="maker_name"]`).ChildrenFiltered("a")
	href, _ := links.Attr("href")
	name := links.Text()
	if href == "" || name == "" {
		return domain.Circle{}
	}
	// 社团 URL 形如 .../maker_id/RG12345.html：数字段位于末尾 10 个字符的前 5 位。
	circleID, _ := leadingInt(extractTrailingID(href, 10, 5))
	return domain.Circle{ID: circleID, Name: name}
}

// outline 是 #work_outline 表格的表头行集合。
type outline struct {
	headers *goquery.Selection
}

func outlineTable(doc *goquery.Document) outline {
	return outline{headers: doc.Find("#work_outline").ChildrenFiltered("tbody").ChildrenFiltered("tr").ChildrenFiltered("th")}
}

// value 返回表头文字与 label 完全相等的那一行的 td（可能为空选择集）。
func (o outline) value(label string) *goquery.Selection {
	return o.headers.FilterFunction(func(_ int, th *goquery.Selection) bool {
		return th.Text() == label
	}).Parent().ChildrenFiltered("td")
}

func fetchURL(ctx context.Context, c *http.Client, u, cookie string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, &providerx.TransportError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &providerx.HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	}

	// 统一转成 UTF-8：标签匹配是逐字比较，编码不一致会导致整页解析失败。
	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &providerx.TransportError{URL: u, Err: err}
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, &providerx.TransportError{URL: u, Err: err}
	}
	return b, nil
}

// cssQuote 转义 CSS 属性选择器双引号字符串中的特殊字符。
func cssQuote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
