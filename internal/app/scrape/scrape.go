package scrape

import (
	"context"
	"errors"
	"net/http"
	"unicode"

	"go.uber.org/zap"

	"github.com/John-Robertt/dlmeta/internal/domain"
	"github.com/John-Robertt/dlmeta/internal/locale"
	"github.com/John-Robertt/dlmeta/internal/provider"
)

// Scraper 把一次作品抽取串成固定流水线：
// 选 locale -> 抓详情页 -> 解析 -> （声优缺失时）回退补全 -> 返回。
//
// 约束：
// - 每次调用至多两次串行网络请求，不做重试
// - 调用之间不共享可变状态，可并发调用
// - 失败时不返回部分数据
type Scraper struct {
	Primary  provider.PageProvider
	Fallback provider.VASource // 为 nil 时声优缺失直接返回主页面结果
	Client   *http.Client
	Logger   *zap.Logger
}

// ParsedPage 是主页面解析完成后的中间结果。
type ParsedPage struct {
	Profile locale.Profile
	PageURL string
	Work    domain.WorkRecord
}

// Extract 抽取 id 对应作品的元数据。localeTag 为空或无法识别时使用默认 locale。
func (s *Scraper) Extract(ctx context.Context, id domain.WorkID, localeTag string) (domain.WorkRecord, error) {
	if s.Primary == nil {
		return domain.WorkRecord{}, errors.New("primary provider 不能为空")
	}
	if id <= 0 {
		return domain.WorkRecord{}, errors.New("作品号必须为正数")
	}
	log := s.logger().With(zap.String("rj", id.RJCode()))

	page, err := s.parsePage(ctx, id, locale.Select(localeTag), log)
	if err != nil {
		log.Warn("作品页抽取失败", zap.String("error_code", provider.Code(err)), zap.Error(err))
		return domain.WorkRecord{}, err
	}

	if !needsEnrichment(page) {
		return page.Work, nil
	}

	work, err := s.enrich(ctx, page, log)
	if err != nil {
		log.Warn("回退数据源查询失败", zap.Error(err))
		return domain.WorkRecord{}, err
	}
	return work, nil
}

func (s *Scraper) parsePage(ctx context.Context, id domain.WorkID, prof locale.Profile, log *zap.Logger) (ParsedPage, error) {
	html, pageURL, err := s.Primary.Fetch(ctx, id, prof, s.Client)
	if err != nil {
		return ParsedPage{}, err
	}
	log.Debug("作品页已获取", zap.String("url", pageURL), zap.String("locale", string(prof.Tag)), zap.Int("bytes", len(html)))

	work, err := s.Primary.Parse(id, html, pageURL, prof)
	if err != nil {
		return ParsedPage{}, err
	}
	work.ID = id
	log.Debug("作品页已解析", zap.Int("tags", len(work.Tags)), zap.Int("vas", len(work.VAs)))

	return ParsedPage{Profile: prof, PageURL: pageURL, Work: work}, nil
}

// needsEnrichment：主页面解析成功但没有任何声优时才需要回退。
func needsEnrichment(p ParsedPage) bool {
	return len(p.Work.VAs) == 0
}

func (s *Scraper) enrich(ctx context.Context, page ParsedPage, log *zap.Logger) (domain.WorkRecord, error) {
	work := page.Work
	if s.Fallback == nil {
		return work, nil
	}

	log.Info("作品页缺少声优，查询回退数据源", zap.String("source", s.Fallback.Name()))
	candidates, err := s.Fallback.LookupVAs(ctx, work.ID, s.Client)
	if err != nil {
		return domain.WorkRecord{}, &provider.FallbackError{Source: s.Fallback.Name(), Err: err}
	}

	work.VAs = mergeVAs(work.VAs, candidates)
	log.Debug("回退声优已合并", zap.Int("candidates", len(candidates)), zap.Int("kept", len(work.VAs)))
	return work, nil
}

// mergeVAs 合并回退数据源给出的声优：
// - 候选 <= 1：原样采用（单个候选即使是外文名也保留）
// - 候选 > 1：只保留目标文字书写的名字，按数据源顺序追加
func mergeVAs(dst, candidates []domain.VA) []domain.VA {
	out := append([]domain.VA{}, dst...)
	if len(candidates) <= 1 {
		return append(out, candidates...)
	}
	for _, va := range candidates {
		if inTargetScript(va.Name) {
			out = append(out, va)
		}
	}
	return out
}

// inTargetScript：名字里至少有一个汉字/平假名/片假名，且不含拉丁字母。
func inTargetScript(name string) bool {
	hasTarget := false
	for _, r := range name {
		switch {
		case unicode.In(r, unicode.Latin):
			return false
		case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana):
			hasTarget = true
		}
	}
	return hasTarget
}

func (s *Scraper) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
