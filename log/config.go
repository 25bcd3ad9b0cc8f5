package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
	"moul.io/zapfilter"
)

// FileConfig is the content of the optional log config file.
//
// Example:
//
//	level: debug
//	format: text
//	filter: "debug:processing.* info:*"
type FileConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Filter string `yaml:"filter"`
}

func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ret FileConfig
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// WithFilter returns an option which only passes entries matching the
// zapfilter rules (for example "debug:processing.* info:*").
func WithFilter(rules string) (Option, error) {
	filter, err := zapfilter.ParseRules(rules)
	if err != nil {
		return nil, err
	}
	return zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapfilter.NewFilteringCore(c, filter)
	}), nil
}
