package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor 根据文件扩展名识别格式。
func FormatFor(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

// ParseFormat 解析格式名称（"yaml"/"yml"/"json"）。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Source 一份已加载的配置。
type Source struct {
	k        atomic.Pointer[koanf.Koanf]
	reloadMu sync.Mutex // 串行化 Reload，防止旧数据覆盖新数据
	revision atomic.Uint64
	path     string
	format   Format
	opts     *Options
}

// Load 从文件加载配置，格式由扩展名决定。空文件得到空配置。
func Load(path string, opts ...Option) (*Source, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	s := newSource(path, format, opts)
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadBytes 从字节数据加载配置。这样得到的 Source 不能 Reload 或 Watch。
func LoadBytes(data []byte, format Format, opts ...Option) (*Source, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	s := newSource("", format, opts)
	k, err := parse(data, format, s.opts.Delim)
	if err != nil {
		return nil, err
	}
	s.k.Store(k)
	s.revision.Add(1)
	return s, nil
}

func newSource(path string, format Format, opts []Option) *Source {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return &Source{path: path, format: format, opts: options}
}

// Koanf 返回当前的 koanf 实例（快照）。
func (s *Source) Koanf() *koanf.Koanf {
	return s.k.Load()
}

// Path 返回配置文件路径，LoadBytes 创建的 Source 返回空字符串。
func (s *Source) Path() string {
	return s.path
}

// Format 返回配置格式。
func (s *Source) Format() Format {
	return s.format
}

// Revision 返回成功加载的次数，每次 Reload 成功加一。
func (s *Source) Revision() uint64 {
	return s.revision.Load()
}

// Exists 判断配置中是否设置了 key。
func (s *Source) Exists(key string) bool {
	return s.Koanf().Exists(key)
}

// Decode 将 path 下的配置反序列化到 target，path 为空表示整个配置。
//
// target 中已有的值作为默认值，配置中未出现的字段保持不变。
func (s *Source) Decode(path string, target any) error {
	dc := &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
		),
		Result:           target,
		TagName:          s.opts.Tag,
		WeaklyTypedInput: true,
		ErrorUnused:      s.opts.Strict,
	}
	err := s.Koanf().UnmarshalWithConf(path, target, koanf.UnmarshalConf{
		Tag:           s.opts.Tag,
		DecoderConfig: dc,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	return nil
}

// Reload 重新读取配置文件，解析失败时保留旧配置。
func (s *Source) Reload() error {
	if s.path == "" {
		return ErrNotReloadable
	}
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := parse(data, s.format, s.opts.Delim)
	if err != nil {
		return err
	}
	s.k.Store(k)
	s.revision.Add(1)
	return nil
}

func parse(data []byte, format Format, delim string) (*koanf.Koanf, error) {
	k := koanf.New(delim)
	if len(data) == 0 {
		return k, nil
	}
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, ErrUnsupportedFormat
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}
