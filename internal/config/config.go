package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/dlmeta/internal/locale"
	"github.com/John-Robertt/dlmeta/internal/logging"
)

const (
	// ErrCodeNotFound 表示 --config 指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是在 cwd 下自动发现的配置文件名。
	FileName = "dlmeta.yaml"
	// EnvPrefix 是环境变量覆盖的前缀（DLMETA_*）。
	EnvPrefix = "dlmeta"
	// DefaultTimeout 是单次请求的默认总超时。
	DefaultTimeout = 20 * time.Second
	// DefaultLogLevel 是默认日志级别。
	DefaultLogLevel = "info"
)

// CLIArgs 是 CLI 暴露的覆盖项；空值表示未指定。
type CLIArgs struct {
	ConfigPath    string
	Locale        string
	ProxyURL      string
	DlsiteBaseURL string
	HvdbBaseURL   string
	LogLevel      string
}

// FileConfig 对应 dlmeta.yaml 的结构。
type FileConfig struct {
	Locale        string        `yaml:"locale"`
	ProxyURL      string        `yaml:"proxy_url"`
	Timeout       time.Duration `yaml:"timeout"`
	DlsiteBaseURL string        `yaml:"dlsite_base_url"`
	HvdbBaseURL   string        `yaml:"hvdb_base_url"`
	Log           LogConfig     `yaml:"log"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	File        string `yaml:"file"`
	Development bool   `yaml:"development"`
}

// EnvConfig 对应 DLMETA_* 环境变量；空值表示未设置。
type EnvConfig struct {
	Locale        string        `envconfig:"LOCALE"`
	ProxyURL      string        `envconfig:"PROXY_URL"`
	Timeout       time.Duration `envconfig:"TIMEOUT"`
	DlsiteBaseURL string        `envconfig:"DLSITE_BASE_URL"`
	HvdbBaseURL   string        `envconfig:"HVDB_BASE_URL"`
	LogLevel      string        `envconfig:"LOG_LEVEL"`
	LogFile       string        `envconfig:"LOG_FILE"`
}

// EffectiveConfig 是合并并校验后的最终配置，调用方直接消费。
type EffectiveConfig struct {
	// Path 是实际读取的配置文件；未读取任何文件时为空。
	Path string

	Locale   locale.Tag
	ProxyURL string
	Timeout  time.Duration

	// 为空表示使用 provider 内置的默认站点。
	DlsiteBaseURL string
	HvdbBaseURL   string

	Log logging.Config
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Path == "" {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件、叠加环境变量与 CLI 参数，得到最终配置。
//
// 发现规则：
// 1) CLI 给了 --config：读取该文件（必选，不存在报 config_not_found）
// 2) 否则尝试 <cwd>/dlmeta.yaml（可选）
//
// 覆盖优先级：CLI > 环境变量 > 配置文件 > 内置默认。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
	)
	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		cfgPath = absCleanFrom(cwdAbs, p)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		cfgPath = filepath.Join(cwdAbs, FileName)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			cfgPath = ""
		}
	}

	var env EnvConfig
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Err: fmt.Errorf("环境变量无效：%w", err)}
	}

	return merge(cfgPath, cli, env, fc)
}

func merge(cfgPath string, cli CLIArgs, env EnvConfig, fc FileConfig) (EffectiveConfig, error) {
	invalid := func(err error) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	eff := EffectiveConfig{
		Path:          cfgPath,
		Locale:        locale.Normalize(pick(cli.Locale, env.Locale, fc.Locale)),
		ProxyURL:      pick(cli.ProxyURL, env.ProxyURL, fc.ProxyURL),
		DlsiteBaseURL: strings.TrimRight(pick(cli.DlsiteBaseURL, env.DlsiteBaseURL, fc.DlsiteBaseURL), "/"),
		HvdbBaseURL:   strings.TrimRight(pick(cli.HvdbBaseURL, env.HvdbBaseURL, fc.HvdbBaseURL), "/"),
		Log: logging.Config{
			Level:       strings.ToLower(pick(cli.LogLevel, env.LogLevel, fc.Log.Level, DefaultLogLevel)),
			File:        pick(env.LogFile, fc.Log.File),
			Development: fc.Log.Development,
		},
	}

	switch {
	case env.Timeout != 0:
		eff.Timeout = env.Timeout
	case fc.Timeout != 0:
		eff.Timeout = fc.Timeout
	default:
		eff.Timeout = DefaultTimeout
	}
	if eff.Timeout <= 0 {
		return EffectiveConfig{}, invalid(fmt.Errorf("timeout 必须为正数：%s", eff.Timeout))
	}

	if err := validateProxyURL(eff.ProxyURL); err != nil {
		return EffectiveConfig{}, invalid(err)
	}
	if err := validateBaseURL("dlsite_base_url", eff.DlsiteBaseURL); err != nil {
		return EffectiveConfig{}, invalid(err)
	}
	if err := validateBaseURL("hvdb_base_url", eff.HvdbBaseURL); err != nil {
		return EffectiveConfig{}, invalid(err)
	}
	if _, err := logging.ParseLevel(eff.Log.Level); err != nil {
		return EffectiveConfig{}, invalid(fmt.Errorf("log.level 无效：%q", eff.Log.Level))
	}
	return eff, nil
}

// pick 返回第一个非空（去空白后）的值。
func pick(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func validateProxyURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("proxy_url 无效：%w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5", "socks5h":
	default:
		return fmt.Errorf("proxy_url 只支持 http/https/socks5/socks5h：%q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("proxy_url 缺少主机：%q", raw)
	}
	return nil
}

func validateBaseURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s 无效：%q", field, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s 必须是 http/https：%q", field, raw)
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
