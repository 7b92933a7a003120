package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/John-Robertt/tvrate/internal/domain"
)

const DefaultTimeout = 20 * time.Second

// maxBodyBytes 限制单页大小，避免异常页面拖垮内存；超出时报错而不是截断。
// 变量形式便于测试调小。
var maxBodyBytes int64 = 16 << 20

// Transport 把“UA 池 + 代理 + keep-alive 策略 + 可选限速”固化为统一策略。
//
// 不做重试：单次失败直接返回，由上层按阶段归类并中止整个解析。
type Transport struct {
	Base *http.Transport

	ua *uaPool

	// Limiter 非空时，每个请求发出前先等待令牌（本地礼貌限速，默认关闭）。
	Limiter *rate.Limiter

	// DisableKeepAlives 决定是否对 Request 设置 Close=true（额外保险）。
	// 真正禁用 keep-alive 依赖 Base.DisableKeepAlives。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	// Clone 会复制 Header 等，避免在 RoundTripper 内部“污染”调用方的 request。
	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" && t.ua != nil {
		r.Header.Set("User-Agent", t.ua.random())
	}
	if r.Header.Get("Accept-Language") == "" {
		// 评分与季导航在英文页面上结构最稳定。
		r.Header.Set("Accept-Language", "en-US,en;q=0.9")
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return t.Base.RoundTrip(r)
}

// Options 描述共享 HTTP client 的构造参数。
type Options struct {
	ProxyURL  string
	Timeout   time.Duration
	RateLimit float64 // 每秒请求数；<=0 表示不限速
}

// NewClient 构造用于页面抓取的 HTTP client。
//
// 规则：
// - ProxyURL 非空：必须走代理，且禁用 keep-alive（每请求新连接）
// - 内置 UA 池：每个请求随机 UA
// - 总超时（Timeout<=0 时使用 DefaultTimeout）
func NewClient(opts Options) (*http.Client, error) {
	proxyURL := strings.TrimSpace(opts.ProxyURL)
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		MaxIdleConnsPerHost:   32,
	}

	disableKeepAlives := false
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		// proxy 模式强制每请求新连接（代理池轮换依赖该行为）。
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	tr := &Transport{
		Base:              base,
		ua:                globalUA,
		DisableKeepAlives: disableKeepAlives,
	}
	if opts.RateLimit > 0 {
		tr.Limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// Fetch 执行一次阻塞 GET 并返回完整响应体。
//
// 传输失败或非 2xx 时返回 Kind=network 的 *domain.Error（非 2xx 时内层为 *domain.HTTPStatusError）。
// stage 只用于标注错误来源，不影响请求本身。
func Fetch(ctx context.Context, c *http.Client, stage domain.Stage, u string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindNetwork, Stage: stage, URL: u, Msg: "构造请求失败", Err: err}
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindNetwork, Stage: stage, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 丢弃 body，便于连接复用。
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &domain.Error{
			Kind:  domain.KindNetwork,
			Stage: stage,
			URL:   u,
			Err:   &domain.HTTPStatusError{URL: u, StatusCode: resp.StatusCode},
		}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindNetwork, Stage: stage, URL: u, Msg: "读取响应失败", Err: err}
	}
	if int64(len(b)) > maxBodyBytes {
		return nil, &domain.Error{Kind: domain.KindNetwork, Stage: stage, URL: u, Msg: fmt.Sprintf("响应超过 %d 字节上限", maxBodyBytes)}
	}
	return b, nil
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
