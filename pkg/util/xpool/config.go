package xpool

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/xaffinity/pkg/hw/xcpu"
)

// Format 是配置文件格式。
type Format string

const (
	// FormatYAML YAML 格式。
	FormatYAML Format = "yaml"
	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// 配置加载错误。
var (
	ErrUnsupportedFormat = errors.New("xpool: unsupported config format")
	ErrLoadFailed        = errors.New("xpool: load config failed")
	ErrParseFailed       = errors.New("xpool: parse config failed")
	ErrUnmarshalFailed   = errors.New("xpool: unmarshal config failed")
)

// Config 是 Pool 的文件配置，位于顶层键 "pool" 下：
//
//	pool:
//	  name: demo
//	  mode: per-core
//	  workers: 0
//	  logical_cpus: 0
type Config struct {
	// Name 对应 WithName。
	Name string `koanf:"name"`
	// Mode 为 "per-core" 或 "per-logical-cpu"，空串为 per-core。
	Mode string `koanf:"mode"`
	// Workers 对应 WithWorkers，0 表示自动。
	Workers int `koanf:"workers"`
	// LogicalCPUs 对应 xcpu.WithLogicalCPUs，0 表示探测进程亲和性掩码允许的全部 CPU。
	LogicalCPUs int `koanf:"logical_cpus"`
}

// configKey 是配置在文件中的顶层键。
const configKey = "pool"

// LoadConfig 从文件加载配置，格式由扩展名（.yaml/.yml/.json）决定。
func LoadConfig(path string) (Config, error) {
	format, err := detectFormat(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return ParseConfig(data, format)
}

// ParseConfig 从字节数据解析配置。空数据得到零值配置。
func ParseConfig(data []byte, format Format) (Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	k := koanf.New(".")
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}
	var cfg Config
	if err := k.UnmarshalWithConf(configKey, &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return cfg, nil
}

// Options 把配置转换为 New 的选项。
func (c Config) Options() ([]Option, error) {
	mode, err := ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	if c.Workers < 0 || c.Workers > maxWorkers {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	opts := []Option{WithMode(mode), WithWorkers(c.Workers)}
	if c.Name != "" {
		opts = append(opts, WithName(c.Name))
	}
	return opts, nil
}

// DiscoverOptions 返回 xcpu.Discover 的选项。
func (c Config) DiscoverOptions() []xcpu.Option {
	if c.LogicalCPUs > 0 {
		return []xcpu.Option{xcpu.WithLogicalCPUs(c.LogicalCPUs)}
	}
	return nil
}

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, ext)
	}
}
