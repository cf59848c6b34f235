package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusError 非 2xx 响应
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// HTTP 基于 net/http 的 JSON Transport
// GET/DELETE 的 params 编码为 query，其余方法编码为 JSON body
type HTTP struct {
	client  *http.Client
	baseURL string
	headers map[string]string
	before  func(*http.Request) error
}

// HTTPOption HTTP 选项
type HTTPOption func(*HTTP)

// WithTimeout 单次请求超时
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) { h.client.Timeout = d }
}

// WithHeader 固定 Header
func WithHeader(key, value string) HTTPOption {
	return func(h *HTTP) { h.headers[key] = value }
}

// WithHTTPClient 替换底层 client
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// WithBeforeRequest 发送前钩子（签名等）
func WithBeforeRequest(fn func(*http.Request) error) HTTPOption {
	return func(h *HTTP) { h.before = fn }
}

// NewHTTP 创建 HTTP Transport
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Send 发送请求并把 JSON 响应解码为 any
func (h *HTTP) Send(ctx context.Context, method, path string, params any) (any, error) {
	req, err := h.build(ctx, method, path, params)
	if err != nil {
		return nil, fmt.Errorf("build http request failed: %w", err)
	}
	if h.before != nil {
		if err := h.before(req); err != nil {
			return nil, fmt.Errorf("before request hook failed: %w", err)
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: body}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	return out, nil
}

func (h *HTTP) build(ctx context.Context, method, path string, params any) (*http.Request, error) {
	fullURL := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		fullURL = h.baseURL + "/" + strings.TrimLeft(path, "/")
	}

	var body io.Reader
	if method == http.MethodGet || method == http.MethodDelete {
		q, err := encodeQuery(params)
		if err != nil {
			return nil, err
		}
		if q != "" {
			fullURL += "?" + q
		}
	} else if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal request data failed: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// encodeQuery 先转为 JSON 对象，再按字段生成 query
func encodeQuery(params any) (string, error) {
	if params == nil {
		return "", nil
	}
	if v, ok := params.(url.Values); ok {
		return v.Encode(), nil
	}

	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal query failed: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", fmt.Errorf("query params must be an object: %w", err)
	}

	q := url.Values{}
	for k, v := range fields {
		if v == nil {
			continue
		}
		switch x := v.(type) {
		case string:
			q.Set(k, x)
		default:
			raw, _ := json.Marshal(x)
			q.Set(k, string(raw))
		}
	}
	return q.Encode(), nil
}
