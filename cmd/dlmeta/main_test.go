package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/dlmeta/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DLMETA_LOCALE", "DLMETA_PROXY_URL", "DLMETA_TIMEOUT",
		"DLMETA_DLSITE_BASE_URL", "DLMETA_HVDB_BASE_URL",
		"DLMETA_LOG_LEVEL", "DLMETA_LOG_FILE",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func decodeResult(t *testing.T, stdout string) domain.Result {
	t.Helper()
	var res domain.Result
	dec := json.NewDecoder(strings.NewReader(stdout))
	if err := dec.Decode(&res); err != nil {
		t.Fatalf("stdout 不是合法的 Result JSON：%v\nstdout=%q", err, stdout)
	}
	if dec.More() {
		t.Fatalf("stdout 只能包含一个 JSON：%q", stdout)
	}
	return res
}

func newSite(t *testing.T, withVAs bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	va := ""
	if withVAs {
		va = `<tr><th>声優</th><td><a href="#">沢野ぽぷら</a></td></tr>`
	}
	mux.HandleFunc("/maniax/work/=/product_id/RJ012345.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><body>
<h1 id="work_name"><a href="%s/maniax/work/=/product_id/RJ012345.html">耳かき</a></h1>
<span class="maker_name"><a href="https://www.dlsite.com/maniax/circle/profile/=/maker_id/RG24680.html">ひだまり工房</a></span>
<table id="work_outline"><tbody>
<tr><th>販売日</th><td>2023年04月15日</td></tr>
%s
<tr><th>年齢指定</th><td><span>全年齢</span></td></tr>
<tr><th>ジャンル</th><td><div class="main_genre"><a href="https://www.dlsite.com/maniax/fsr/=/genre/497/from/work.genre">癒し</a></div></td></tr>
</tbody></table></body></html>`, srv.URL, va)
	})
	mux.HandleFunc("/Dashboard/WorkDetails/12345", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<a href="/CV/CVInfo/3">かの仔</a>`))
	})
	return srv
}

func TestCLI_NoTTY_StdoutOnlyResultJSON(t *testing.T) {
	clearEnv(t)
	srv := newSite(t, true)

	code, stdout, stderr := run(t, "fetch", "RJ012345", "--locale", "ja-jp", "--dlsite-base-url", srv.URL, "--hvdb-base-url", srv.URL)
	if code != exitOK {
		t.Fatalf("期望退出码 0，实际 %d\nstderr=%s", code, stderr)
	}
	res := decodeResult(t, stdout)
	if res.Status != domain.StatusOK || res.RJCode != "RJ012345" || res.Locale != "ja-jp" {
		t.Fatalf("Result 不符合预期：%+v", res)
	}
	if res.Work == nil || res.Work.Title != "耳かき" || res.Work.Release != "2023-04-15" {
		t.Fatalf("作品记录不符合预期：%+v", res.Work)
	}
	if len(res.Work.VAs) != 1 || res.Work.VAs[0].Name != "沢野ぽぷら" {
		t.Fatalf("声优不符合预期：%+v", res.Work.VAs)
	}
	if !strings.Contains(stderr, "完成：RJ012345 status=ok") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr)
	}
}

func TestCLI_FallbackToHVDB(t *testing.T) {
	clearEnv(t)
	srv := newSite(t, false)

	code, stdout, stderr := run(t, "fetch", "12345", "--locale", "ja-jp", "--dlsite-base-url", srv.URL, "--hvdb-base-url", srv.URL)
	if code != exitOK {
		t.Fatalf("期望退出码 0，实际 %d\nstderr=%s", code, stderr)
	}
	res := decodeResult(t, stdout)
	if res.Work == nil || len(res.Work.VAs) != 1 || res.Work.VAs[0] != (domain.VA{ID: 3, Name: "かの仔"}) {
		t.Fatalf("回退声优不符合预期：%+v", res.Work)
	}
}

func TestCLI_RequestFailed(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	code, stdout, _ := run(t, "fetch", "RJ000001", "--dlsite-base-url", srv.URL)
	if code != exitFailed {
		t.Fatalf("期望退出码 1，实际 %d", code)
	}
	res := decodeResult(t, stdout)
	if res.Status != domain.StatusFailed || res.ErrorCode != domain.ErrCodeRequestFailed {
		t.Fatalf("Result 不符合预期：%+v", res)
	}
	if res.Work != nil {
		t.Fatalf("失败时不应输出部分数据：%+v", res.Work)
	}
	if !strings.Contains(res.ErrorMsg, "received: 404") {
		t.Fatalf("错误信息应包含状态码：%q", res.ErrorMsg)
	}
	if res.Locale != "zh-cn" {
		t.Fatalf("未指定 locale 时应为 zh-cn：%q", res.Locale)
	}
}

func TestCLI_ConfigNotFound(t *testing.T) {
	clearEnv(t)
	code, stdout, _ := run(t, "fetch", "1", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	if code != exitFailed {
		t.Fatalf("期望退出码 1，实际 %d", code)
	}
	res := decodeResult(t, stdout)
	if res.ErrorCode != domain.ErrCodeConfigNotFound {
		t.Fatalf("期望 config_not_found，实际 %+v", res)
	}
}

func TestCLI_UsageErrors(t *testing.T) {
	clearEnv(t)
	cases := [][]string{
		{"fetch"},
		{"fetch", "RJabc"},
		{"fetch", "0"},
		{"fetch", "1", "2"},
		{"fetch", "1", "--unknown"},
		{"nope"},
	}
	for _, args := range cases {
		code, stdout, stderr := run(t, args...)
		if code != exitUsage {
			t.Fatalf("%v 期望退出码 2，实际 %d", args, code)
		}
		if stdout != "" {
			t.Fatalf("%v 用法错误不应写 stdout：%q", args, stdout)
		}
		if !strings.Contains(stderr, "参数错误") {
			t.Fatalf("%v stderr 缺少错误说明：%q", args, stderr)
		}
	}
}

func TestCLI_OutWritesResultFile(t *testing.T) {
	clearEnv(t)
	srv := newSite(t, true)
	out := filepath.Join(t.TempDir(), "results", "RJ012345.json")

	code, stdout, stderr := run(t, "fetch", "RJ012345", "--locale", "ja-jp", "--dlsite-base-url", srv.URL, "-o", out)
	if code != exitOK {
		t.Fatalf("期望退出码 0，实际 %d\nstderr=%s", code, stderr)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("读取结果文件失败：%v", err)
	}
	fromFile := decodeResult(t, string(b))
	fromStdout := decodeResult(t, stdout)
	if fromFile.Status != domain.StatusOK || fromFile.Work == nil || fromFile.Work.Title != fromStdout.Work.Title {
		t.Fatalf("结果文件与 stdout 不一致：\nfile=%+v\nstdout=%+v", fromFile, fromStdout)
	}
}
