// Package service 组装改写流水线并对外提供操作入口
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zimrewrite/internal/audit"
	"zimrewrite/internal/bundle"
	"zimrewrite/internal/config"
	"zimrewrite/internal/fuzzy"
	"zimrewrite/internal/logger"
	"zimrewrite/internal/pathset"
	"zimrewrite/internal/rewriter"
	"zimrewrite/internal/storage/db"
	"zimrewrite/internal/storage/model"
	"zimrewrite/internal/storage/repo"
	"zimrewrite/internal/zimpath"
	"zimrewrite/pkg/domain"
	"zimrewrite/pkg/fuzzyspec"
)

// Document 待改写的一篇文档
type Document struct {
	URL         string // 原始绝对 URL
	ContentType string // MIME 类型，可含参数
	Content     string // 文档内容
}

// Service 改写服务
//
// 一个实例对应一次归档构建：规则集在创建时编译锁定，已知路径
// 集合与脚本种类登记表贯穿整次运行
type Service struct {
	cfg        *config.Config
	log        logger.Logger
	rules      *fuzzyspec.Config
	engine     *fuzzy.Engine
	normalizer *zimpath.Normalizer
	paths      *pathset.Set
	kinds      *rewriter.KindRegistry
	recorder   *audit.Recorder
	rulesets   *repo.Ruleset
	events     *repo.Event
	gdb        *gorm.DB
	run        domain.RunID
}

// New 创建改写服务
//
// 打开数据库并加载启用的规则集，没有启用记录时落回内置规则；
// 规则编译失败直接返回错误，带着错误的规则集跑完整个归档只会
// 产出损坏的条目
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Service, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}

	gdb, err := db.New(db.Options{
		FullPath: cfg.Sqlite.Db,
		Name:     "zimrewrite.db",
		Prefix:   cfg.Sqlite.Prefix,
		Logger:   db.NewGormLogger(log),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb,
		&model.Setting{},
		&model.RulesetRecord{},
		&model.RewriteEventRecord{},
	); err != nil {
		return nil, err
	}
	rulesets := repo.NewRuleset(gdb)
	events := repo.NewEvent(gdb)

	rules, err := rulesets.GetActive(ctx)
	if errors.Is(err, domain.ErrNoActiveRuleset) {
		rules = fuzzyspec.DefaultRules()
		log.Info("[服务] 无启用规则集使用内置规则", "rules", len(rules.Rules))
	} else if err != nil {
		return nil, err
	} else {
		log.Info("[服务] 已加载启用规则集", "name", rules.Name, "rules", len(rules.Rules))
	}

	engine, err := fuzzy.Compile(rules)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:        cfg,
		log:        log,
		rules:      rules,
		engine:     engine,
		normalizer: zimpath.New(engine),
		paths:      pathset.New(log),
		kinds:      rewriter.NewKindRegistry(log),
		rulesets:   rulesets,
		events:     events,
		gdb:        gdb,
		run:        domain.RunID(uuid.NewString()),
	}
	if cfg.Rewrite.Audit {
		s.recorder = audit.NewRecorder(events, cfg.Rewrite.AuditBuffer, log)
		s.recorder.Start()
	}
	return s, nil
}

// Run 返回本次运行的 ID
func (s *Service) Run() domain.RunID { return s.run }

// Rules 返回生效中的规则配置
func (s *Service) Rules() *fuzzyspec.Config { return s.rules }

// Close 停止审计并关闭数据库
func (s *Service) Close() error {
	if s.recorder != nil {
		s.recorder.Stop()
	}
	if missing := s.paths.Missing(); len(missing) > 0 {
		s.log.Info("[服务] 本次运行存在集合外引用", "count", len(missing))
	}
	return db.Close(s.gdb)
}

// NormalizeURL 把绝对 URL 归一为归档路径
func (s *Service) NormalizeURL(rawURL string) (domain.ZimPath, error) {
	u, err := domain.NewHttpUrl(rawURL)
	if err != nil {
		return domain.ZimPath{}, err
	}
	return s.normalizer.Normalize(u)
}

// AddKnownURL 把一个已收录条目的 URL 归一后计入已知路径集合
func (s *Service) AddKnownURL(rawURL string) (domain.ZimPath, error) {
	path, err := s.NormalizeURL(rawURL)
	if err != nil {
		return domain.ZimPath{}, err
	}
	s.paths.Add(path)
	return path, nil
}

// AddKnownURLs 批量登记已知条目，逐条记录失败但不中断
func (s *Service) AddKnownURLs(rawURLs []string) int {
	added := 0
	for _, rawURL := range rawURLs {
		if _, err := s.AddKnownURL(rawURL); err != nil {
			s.log.Warn("[服务] 已知条目登记失败", "url", rawURL, "err", err.Error())
			continue
		}
		added++
	}
	return added
}

// MissingPaths 返回迄今为止发现的集合外目标路径
func (s *Service) MissingPaths() []string { return s.paths.Missing() }

// RewriteDocument 改写一篇文档
// 按内容类型分派到对应改写器，不支持的类型返回 ErrUnsupportedContentType
func (s *Service) RewriteDocument(ctx context.Context, doc Document) (domain.DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.DocumentResult{}, err
	}
	start := time.Now()
	articleURL, err := domain.NewHttpUrl(doc.URL)
	if err != nil {
		return domain.DocumentResult{}, err
	}
	articlePath, err := s.normalizer.Normalize(articleURL)
	if err != nil {
		return domain.DocumentResult{}, err
	}

	urls := rewriter.NewURLRewriter(
		articleURL, articlePath, s.normalizer, s.engine, s.paths, s.log,
		rewriter.Options{RewriteAll: s.cfg.Rewrite.RewriteAll},
	)

	var res domain.DocumentResult
	switch mediaType(doc.ContentType) {
	case "text/html", "application/xhtml+xml":
		res, err = s.rewriteHTML(articleURL, articlePath, urls, doc.Content)
	case "text/css":
		css := rewriter.NewCSSRewriter(urls)
		content, n := css.Rewrite(doc.Content)
		res = domain.DocumentResult{Content: content, URLTotal: n, URLRewritten: n}
	case "application/javascript", "text/javascript", "application/x-javascript":
		res, err = s.rewriteJS(articlePath, urls, doc.Content)
	default:
		return domain.DocumentResult{}, domain.ErrUnsupportedContentType
	}
	if err != nil {
		return domain.DocumentResult{}, err
	}

	s.record(doc, articlePath, res)
	s.log.Debug("[服务] 文档改写完成",
		"path", articlePath.Value(),
		"urls", res.URLTotal,
		"rewritten", res.URLRewritten,
		"elapsed", time.Since(start).String(),
	)
	return res, nil
}

func (s *Service) rewriteHTML(articleURL domain.HttpUrl, articlePath domain.ZimPath, urls *rewriter.URLRewriter, content string) (domain.DocumentResult, error) {
	opts := rewriter.HTMLOptions{}
	if s.cfg.Rewrite.Bundle {
		blob, err := bundle.Build(s.rules, bundle.BootstrapContext{
			OriginalScheme: schemeOf(articleURL.Value()),
			OriginalURL:    articleURL.Value(),
			DocumentPath:   articlePath.Value(),
		})
		if err != nil {
			return domain.DocumentResult{}, err
		}
		opts.PreHeadInsert = bundle.ScriptTag(blob)
	}
	css := rewriter.NewCSSRewriter(urls)
	js := rewriter.NewJSRewriter(urls, s.kinds, s.log)
	htmlRw := rewriter.NewHTMLRewriter(urls, css, js, s.kinds, opts, s.log)
	return htmlRw.Rewrite(content)
}

func (s *Service) rewriteJS(articlePath domain.ZimPath, urls *rewriter.URLRewriter, content string) (domain.DocumentResult, error) {
	js := rewriter.NewJSRewriter(urls, s.kinds, s.log)
	if s.kinds.ResolveForRewrite(articlePath) == domain.ScriptKindModule {
		out, n, err := js.RewriteModule(content)
		if err != nil {
			return domain.DocumentResult{}, err
		}
		return domain.DocumentResult{Content: out, URLTotal: n, URLRewritten: n}, nil
	}
	out, n := js.RewriteClassic(content)
	return domain.DocumentResult{Content: out, URLTotal: n, URLRewritten: n}, nil
}

func (s *Service) record(doc Document, articlePath domain.ZimPath, res domain.DocumentResult) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(domain.RewriteEvent{
		Run:          s.run,
		DocPath:      articlePath.Value(),
		ContentType:  mediaType(doc.ContentType),
		URLTotal:     res.URLTotal,
		URLRewritten: res.URLRewritten,
		Warnings:     res.Warnings,
	})
}

// mediaType 取 MIME 类型主体，丢弃参数并归一大小写
func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func schemeOf(rawURL string) string {
	if i := strings.Index(rawURL, "://"); i > 0 {
		return rawURL[:i]
	}
	return "https"
}
