// 命令行入口：URL 归一、文档改写与规则集管理
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"zimrewrite/internal/config"
	"zimrewrite/internal/logger"
	"zimrewrite/internal/service"
)

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径（YAML）")
		normalize   = flag.String("normalize", "", "归一化单个 URL 并输出归档路径")
		docPath     = flag.String("doc", "", "待改写文档的文件路径")
		docURL      = flag.String("url", "", "文档的原始绝对 URL")
		contentType = flag.String("type", "text/html", "文档的内容类型")
		knownList   = flag.String("known", "", "已知条目 URL 清单文件，每行一条")
		importPath  = flag.String("import-rules", "", "导入规则集 JSON 文件")
		activateID  = flag.String("activate", "", "启用指定 ID 的规则集")
		corpus      = flag.Bool("export-corpus", false, "导出生效规则集的断言语料")
	)
	flag.Parse()

	cfg := config.NewConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatal("加载配置失败: %v", err)
		}
		cfg = loaded
	}
	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Writer:  cfg.Log.Writer,
		LogPath: cfg.Log.Path,
	})

	ctx := context.Background()
	svc, err := service.New(ctx, cfg, log)
	if err != nil {
		fatal("初始化服务失败: %v", err)
	}
	defer svc.Close()

	switch {
	case *normalize != "":
		path, err := svc.NormalizeURL(*normalize)
		if err != nil {
			fatal("归一化失败: %v", err)
		}
		fmt.Println(path.Value())

	case *importPath != "":
		data, err := os.ReadFile(*importPath)
		if err != nil {
			fatal("读取规则文件失败: %v", err)
		}
		rules, err := svc.ImportRuleset(ctx, data)
		if err != nil {
			fatal("导入规则集失败: %v", err)
		}
		fmt.Println(rules.ID)

	case *activateID != "":
		if err := svc.ActivateRuleset(ctx, *activateID); err != nil {
			fatal("启用规则集失败: %v", err)
		}

	case *corpus:
		out, err := svc.ExportCorpus()
		if err != nil {
			fatal("导出语料失败: %v", err)
		}
		fmt.Println(out)

	case *docPath != "":
		if *docURL == "" {
			fatal("缺少 -url 参数")
		}
		if *knownList != "" {
			if err := loadKnown(svc, *knownList); err != nil {
				fatal("加载已知条目失败: %v", err)
			}
		}
		content, err := os.ReadFile(*docPath)
		if err != nil {
			fatal("读取文档失败: %v", err)
		}
		res, err := svc.RewriteDocument(ctx, service.Document{
			URL:         *docURL,
			ContentType: *contentType,
			Content:     string(content),
		})
		if err != nil {
			fatal("改写失败: %v", err)
		}
		os.Stdout.WriteString(res.Content)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func loadKnown(svc *service.Service, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	svc.AddKnownURLs(urls)
	return nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
