package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"shortmark/internal/config"
)

var (
	Logger      = zap.NewNop()         // 全局 Logger 实例
	AtomicLevel = zap.NewAtomicLevel() // 全局共享日志级别
)

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("2006/01/02 - 15:04:05"))
		},
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// InitLogger 根据配置初始化全局日志：控制台 + lumberjack 轮转文件
func InitLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zap.InfoLevel
	}
	AtomicLevel = zap.NewAtomicLevelAt(level)

	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 10 // MB
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 5
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 7 // 天
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(os.Stdout), AtomicLevel),
	}

	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), os.ModePerm); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		} else {
			rotator := &lumberjack.Logger{
				Filename:   cfg.Path,
				MaxSize:    maxSize,
				MaxBackups: maxBackups,
				MaxAge:     maxAge,
				Compress:   cfg.Compress,
				LocalTime:  true,
			}
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig()),
				zapcore.AddSync(rotator),
				AtomicLevel,
			))
		}
	}

	Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(Logger)

	Logger.Info("InitLogger finished",
		zap.String("level", level.String()),
		zap.String("path", cfg.Path))
	return Logger
}
