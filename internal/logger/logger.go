// Package logger はzapロガーの組み立てをまとめる。
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// "prod" ならJSON、それ以外は開発用のコンソール出力
	Env string
	// 空でなければこのファイルにもJSONで出す（ローテーションあり）
	File string
}

// New はOptionsに合わせたロガーを作る。
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stdout"}

	if opts.File == "" {
		return cfg.Build(zap.AddCaller())
	}

	rotate := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    64,
		MaxBackups: 7,
		MaxAge:     7,
	}
	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotate),
			cfg.Level,
		),
		zapcore.NewCore(
			consoleEncoder(opts.Env),
			zapcore.AddSync(os.Stdout),
			cfg.Level,
		),
	)
	return zap.New(core, zap.AddCaller()), nil
}

func consoleEncoder(env string) zapcore.Encoder {
	if env == "prod" {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	return zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
}
