package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/John-Robertt/tvrate/internal/extract"
	"github.com/John-Robertt/tvrate/internal/logging"
)

const (
	// FileName 是 cwd 下自动发现的配置文件名。
	FileName = "tvrate.toml"

	// ErrCodeNotFound 表示 --config 指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	DefaultParser    = extract.BackendStrict
	DefaultThreads   = 1
	MaxThreads       = 32
	DefaultBaseURL   = "https://www.imdb.com"
	DefaultTimeout   = 20 * time.Second
	DefaultServeAddr = "127.0.0.1:8080"
)

// CLIArgs 保留“是否显式指定”的信息，保证 CLI 能覆盖配置文件（包括覆盖成默认值）。
type CLIArgs struct {
	// ConfigPath 非空时必须存在；为空时尝试 <cwd>/tvrate.toml（可选）。
	ConfigPath string

	Parser    string
	ParserSet bool

	Threads    int
	ThreadsSet bool

	// Verbose 把日志级别提升为 debug（优先于配置文件）。
	Verbose bool

	ServeAddr    string
	ServeAddrSet bool
}

// FileConfig 对应 tvrate.toml 的解析结构。
type FileConfig struct {
	Parser         string       `toml:"parser"`
	Threads        int          `toml:"threads"`
	BaseURL        string       `toml:"base_url"`
	Proxy          *ProxyConfig `toml:"proxy"`
	RateLimit      float64      `toml:"rate_limit"`
	TimeoutSeconds int          `toml:"timeout_seconds"`
	Log            LogConfig    `toml:"log"`
	Serve          ServeConfig  `toml:"serve"`
}

type ProxyConfig struct {
	URL string `toml:"url"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServeConfig struct {
	Addr string `toml:"addr"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读取的配置文件；没有读取任何文件时为空。
	ConfigPath string

	Parser  string
	Threads int

	BaseURL   string
	ProxyURL  string
	RateLimit float64
	Timeout   time.Duration

	LogLevel  string
	LogFormat string

	ServeAddr string
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

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在
// 2) 否则尝试 <cwd>/tvrate.toml（可选，不存在即全部使用默认值）
//
// 覆盖优先级（固定）：CLI（显式指定）> 配置文件 > 内置默认值。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	required := false
	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		cfgPath = absCleanFrom(cwdAbs, p)
		required = true
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		if required {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		cfgPath = ""
	}
	return merge(cli, fc, cfgPath)
}

func merge(cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// parser：CLI > config > 默认 strict；兼容 lxml/html5lib/html.parser 别名。
	parser := fc.Parser
	if cli.ParserSet {
		parser = cli.Parser
	}
	parser, err := extract.ParseBackendName(parser)
	if err != nil {
		return invalid(err)
	}

	// threads：CLI > config > 默认 1；超出 [1, 32] 截断。
	threads := fc.Threads
	if cli.ThreadsSet {
		threads = cli.Threads
	}
	if threads == 0 {
		threads = DefaultThreads
	}
	threads = clampThreads(threads)

	baseURL := strings.TrimRight(strings.TrimSpace(fc.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if u, err := url.Parse(baseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid(fmt.Errorf("base_url 必须是 http/https 地址：%q", baseURL))
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return invalid(fmt.Errorf("proxy.url 无效：%w", err))
		}
	}

	if fc.RateLimit < 0 {
		return invalid(fmt.Errorf("rate_limit 不能为负数：%v", fc.RateLimit))
	}
	if fc.TimeoutSeconds < 0 {
		return invalid(fmt.Errorf("timeout_seconds 不能为负数：%d", fc.TimeoutSeconds))
	}
	timeout := DefaultTimeout
	if fc.TimeoutSeconds > 0 {
		timeout = time.Duration(fc.TimeoutSeconds) * time.Second
	}

	level := strings.ToLower(strings.TrimSpace(fc.Log.Level))
	if cli.Verbose {
		level = "debug"
	}
	if _, err := logging.ParseLevel(level); err != nil {
		return invalid(err)
	}
	if level == "" {
		level = "info"
	}
	format, err := logging.ParseFormat(fc.Log.Format)
	if err != nil {
		return invalid(err)
	}

	addr := strings.TrimSpace(fc.Serve.Addr)
	if cli.ServeAddrSet {
		addr = strings.TrimSpace(cli.ServeAddr)
	}
	if addr == "" {
		addr = DefaultServeAddr
	}

	return EffectiveConfig{
		ConfigPath: cfgPath,
		Parser:     parser,
		Threads:    threads,
		BaseURL:    baseURL,
		ProxyURL:   proxyURL,
		RateLimit:  fc.RateLimit,
		Timeout:    timeout,
		LogLevel:   level,
		LogFormat:  format,
		ServeAddr:  addr,
	}, nil
}

func clampThreads(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxThreads {
		return MaxThreads
	}
	return n
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 TOML 配置文件；未知字段视为错误。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
