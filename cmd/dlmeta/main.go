package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/dlmeta/internal/app/scrape"
	"github.com/John-Robertt/dlmeta/internal/config"
	"github.com/John-Robertt/dlmeta/internal/domain"
	"github.com/John-Robertt/dlmeta/internal/infra/fsx"
	"github.com/John-Robertt/dlmeta/internal/infra/httpx"
	"github.com/John-Robertt/dlmeta/internal/locale"
	"github.com/John-Robertt/dlmeta/internal/logging"
	"github.com/John-Robertt/dlmeta/internal/provider"
	"github.com/John-Robertt/dlmeta/internal/provider/dlsite"
	"github.com/John-Robertt/dlmeta/internal/provider/hvdb"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// usageError 标记参数错误（退出码 2）。
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exitError 携带已输出结果后的退出码，不再额外打印。
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// 其余都是用法错误：*usageError 以及 cobra 自身的未知命令等。
	fmt.Fprintf(stderr, "参数错误：%v\n", err)
	return exitUsage
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "dlmeta",
		Short:         "抓取 DLsite 作品元数据并输出 JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	root.AddCommand(newFetchCmd(stdout, stderr))
	return root
}

// fetchOptions 是 fetch 子命令的全部参数。
type fetchOptions struct {
	config.CLIArgs
	// Out 非空时额外把 Result JSON 原子写入该文件。
	Out string
}

func newFetchCmd(stdout, stderr io.Writer) *cobra.Command {
	var f fetchOptions
	cmd := &cobra.Command{
		Use:   "fetch <id|RJcode>",
		Short: "抓取单个作品的元数据",
		Example: `  dlmeta fetch RJ012345
  dlmeta fetch 12345 --locale ja-jp --proxy socks5://127.0.0.1:1080`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return &usageError{err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseWorkID(args[0])
			if err != nil {
				return &usageError{err: err}
			}
			if code := runFetch(cmd.Context(), id, f, stdout, stderr); code != exitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.Locale, "locale", "", "页面 locale：ja-jp|zh-tw|zh-cn（默认 zh-cn）")
	fl.StringVar(&f.ConfigPath, "config", "", "配置文件路径（默认尝试 ./dlmeta.yaml）")
	fl.StringVar(&f.DlsiteBaseURL, "dlsite-base-url", "", "DLsite 站点根地址（镜像）")
	fl.StringVar(&f.HvdbBaseURL, "hvdb-base-url", "", "HVDB 站点根地址（镜像）")
	fl.StringVar(&f.ProxyURL, "proxy", "", "代理地址：http/https/socks5/socks5h")
	fl.StringVar(&f.LogLevel, "log-level", "", "日志级别：debug|info|warn|error")
	fl.StringVarP(&f.Out, "out", "o", "", "额外把 Result JSON 写入该文件（覆盖）")
	return cmd
}

func runFetch(ctx context.Context, id domain.WorkID, opts fetchOptions, stdout, stderr io.Writer) int {
	cli := opts.CLIArgs
	res := domain.Result{
		ID:        id,
		Locale:    string(locale.Normalize(cli.Locale)),
		StartedAt: time.Now(),
	}
	finish := func(exit int) int {
		res.FinishedAt = time.Now()
		res.Finalize()
		if opts.Out != "" {
			if err := writeResultFile(opts.Out, res); err != nil {
				fmt.Fprintf(stderr, "写入结果文件失败：%v\n", err)
				exit = exitFailed
			}
		}
		emitResult(stdout, stderr, res)
		return exit
	}
	fail := func(code string, err error) int {
		res.ErrorCode = code
		res.ErrorMsg = err.Error()
		return finish(exitFailed)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "读取当前目录失败：%v\n", err)
		return exitFailed
	}
	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		return fail(config.Code(err), err)
	}
	res.Locale = string(eff.Locale)

	log, err := logging.NewWithWriter(eff.Log, stderr)
	if err != nil {
		return fail(config.ErrCodeInvalid, err)
	}
	defer func() { _ = log.Sync() }()

	client, err := httpx.NewMetaClient(httpx.Options{ProxyURL: eff.ProxyURL, Timeout: eff.Timeout})
	if err != nil {
		return fail(config.ErrCodeInvalid, err)
	}
	log.Debug("配置（生效）",
		zap.String("config", eff.Path),
		zap.String("locale", res.Locale),
		zap.Bool("proxy", eff.ProxyURL != ""),
		zap.Duration("timeout", eff.Timeout),
	)

	s := &scrape.Scraper{
		Primary:  dlsite.Provider{BaseURL: eff.DlsiteBaseURL},
		Fallback: hvdb.Provider{BaseURL: eff.HvdbBaseURL},
		Client:   client,
		Logger:   log,
	}
	work, err := s.Extract(ctx, id, res.Locale)
	if err != nil {
		return fail(provider.Code(err), err)
	}

	res.Work = &work
	return finish(exitOK)
}

func writeResultFile(path string, res domain.Result) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(path, append(b, '\n'))
}

// emitResult：stdout 非 TTY 时只输出一个 Result JSON，摘要走 stderr；
// TTY 时输出摘要与缩进后的作品记录，错误走 stderr。
func emitResult(stdout, stderr io.Writer, res domain.Result) {
	if isTTY(stdout) {
		fmt.Fprintln(stdout, summaryLine(res))
		if res.Work != nil {
			b, err := json.MarshalIndent(res.Work, "", "  ")
			if err == nil {
				fmt.Fprintln(stdout, string(b))
			}
			return
		}
		fmt.Fprintf(stderr, "%s %s: %s\n", res.RJCode, res.ErrorCode, res.ErrorMsg)
		return
	}

	_ = json.NewEncoder(stdout).Encode(res)
	fmt.Fprintln(stderr, summaryLine(res))
}

func summaryLine(res domain.Result) string {
	if res.Status == domain.StatusOK && res.Work != nil {
		return fmt.Sprintf("完成：%s status=%s tags=%d vas=%d", res.RJCode, res.Status, len(res.Work.Tags), len(res.Work.VAs))
	}
	return fmt.Sprintf("完成：%s status=%s error_code=%s", res.RJCode, res.Status, res.ErrorCode)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
