// Package logger builds zap loggers that write JSON lines to a standard
// stream or a file.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	DevMode bool          `yaml:"devmode"`
	Level   zapcore.Level `yaml:"level"`
	Mode    FileMode      `yaml:"mode"`
	Path    string        `yaml:"path"`
}

func New(conf Config) (*zap.Logger, error) {
	if conf.Path == "" {
		conf.Path = "stderr"
	}
	w, err := OpenFile(conf.Path, conf.Mode)
	if err != nil {
		return nil, err
	}
	encoder := zap.NewProductionEncoderConfig()
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoder), w, conf.Level)
	opts := []zap.Option{zap.ErrorOutput(w)}
	if conf.DevMode {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...), nil
}
