package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 描述日志输出策略。
type Config struct {
	Level       string // debug/info/warn/error，空串视为 info
	Development bool   // true 时使用 console 编码，否则 JSON
	File        string // 非空时额外写入滚动日志文件
}

// 滚动文件的固定策略。
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 3
	fileMaxAgeDays = 28
)

// New 构造写往 stderr 的 logger。stdout 只留给结果 JSON。
func New(cfg Config) (*zap.Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter 与 New 相同，但主输出写往 w。
//
// 约束：
// - w 为 nil 时退化为 os.Stderr
// - File 非空时两路输出使用同一级别
func NewWithWriter(cfg Config, w io.Writer) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	enabler := zap.NewAtomicLevelAt(level)
	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(cfg.Development), zapcore.AddSync(w), enabler),
	}
	if f := strings.TrimSpace(cfg.File); f != "" {
		sink := &lumberjack.Logger{
			Filename:   f,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
		}
		// 文件里始终写 JSON，便于事后检索。
		cores = append(cores, zapcore.NewCore(newEncoder(false), zapcore.AddSync(sink), enabler))
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

// ParseLevel 把字符串级别转换为 zapcore.Level；空串视为 info。
func ParseLevel(level string) (zapcore.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

func newEncoder(development bool) zapcore.Encoder {
	if development {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder
	return zapcore.NewJSONEncoder(ec)
}
