package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/akl7777777/ippure-panel/internal/model"
)

const maxBodyBytes = 2 << 20

// Options configures a Client.
type Options struct {
	APIURL    string
	WebURL    string
	ExitIPURL string
	UserAgent string
	Timeout   time.Duration
	Nodes     map[string]string // egress node name -> proxy URL
}

// Client issues the outbound requests of one lookup. Requests without a node
// use the default egress connection; requests pinned to a node go through
// that node's proxy. The request context carries the only deadline.
type Client struct {
	opts    Options
	timeout time.Duration
	direct  *http.Client
	nodes   *nodePool
}

type nodePool struct {
	mu      sync.Mutex
	clients map[string]*http.Client
}

func New(opts Options) *Client {
	return &Client{
		opts:    opts,
		timeout: opts.Timeout,
		direct:  &http.Client{},
		nodes:   &nodePool{clients: make(map[string]*http.Client)},
	}
}

// WithTimeout returns a client sharing c's transports whose requests use d
// in place of the configured timeout. d <= 0 returns c.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d <= 0 {
		return c
	}
	out := *c
	out.timeout = d
	return &out
}

// HasNode reports whether name is a configured egress node.
func (c *Client) HasNode(name string) bool {
	_, ok := c.opts.Nodes[name]
	return ok
}

func (c *Client) httpClient(node string) (*http.Client, error) {
	if node == "" {
		return c.direct, nil
	}

	c.nodes.mu.Lock()
	defer c.nodes.mu.Unlock()

	if hc, ok := c.nodes.clients[node]; ok {
		return hc, nil
	}
	raw, ok := c.opts.Nodes[node]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, node)
	}
	proxyURL, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("node %s: invalid proxy: %w", node, err)
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = http.ProxyURL(proxyURL)
	hc := &http.Client{Transport: tr}
	c.nodes.clients[node] = hc
	return hc, nil
}

// do performs a GET and returns status and body. Transport failures and
// empty bodies are errors; status codes are left to the caller.
func (c *Client) do(ctx context.Context, node, rawURL string, header http.Header) (int, []byte, error) {
	hc, err := c.httpClient(node)
	if err != nil {
		return 0, nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request %s: %w", rawURL, err)
	}
	req.Header = header

	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, &NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, &NetworkError{URL: rawURL, Err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return resp.StatusCode, nil, &StatusError{Code: resp.StatusCode}
		}
		return resp.StatusCode, nil, ErrEmptyBody
	}
	return resp.StatusCode, body, nil
}

func (c *Client) get(ctx context.Context, node, rawURL string, header http.Header) ([]byte, error) {
	status, body, err := c.do(ctx, node, rawURL, header)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Code: status, Body: snippet(body)}
	}
	return body, nil
}

func (c *Client) headers(accept string) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", c.opts.UserAgent)
	h.Set("Accept", accept)
	h.Set("Accept-Language", "zh-CN,zh;q=0.9")
	return h
}

// FetchAPI queries the JSON endpoint. An empty ip asks about the egress address itself.
func (c *Client) FetchAPI(ctx context.Context, node, ip string) (*model.APIInfo, error) {
	target, err := withIP(c.opts.APIURL, ip)
	if err != nil {
		return nil, err
	}
	body, err := c.get(ctx, node, target, c.headers("application/json"))
	if err != nil {
		return nil, err
	}

	var info model.APIInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &MalformedError{Err: err}
	}
	return &info, nil
}

// FetchPage downloads the IPPure web page as text.
func (c *Client) FetchPage(ctx context.Context, node, ip string) (string, error) {
	target, err := withIP(c.opts.WebURL, ip)
	if err != nil {
		return "", err
	}
	body, err := c.get(ctx, node, target, c.headers("text/html,application/xhtml+xml"))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ExitIP asks an echo service which address the (optionally pinned) connection leaves from.
func (c *Client) ExitIP(ctx context.Context, node string) (string, error) {
	h := make(http.Header)
	h.Set("User-Agent", "curl/7.64.1")
	body, err := c.get(ctx, node, c.opts.ExitIPURL, h)
	if err != nil {
		return "", err
	}

	var resp struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &MalformedError{Err: err}
	}
	if strings.TrimSpace(resp.Query) == "" {
		return "", errors.New("exit IP not present in response")
	}
	return strings.TrimSpace(resp.Query), nil
}

// QueryAggregator asks a deployed aggregator about ip. The aggregator answers
// with a JSON envelope even on failure, so the envelope error wins over the status code.
func (c *Client) QueryAggregator(ctx context.Context, node, endpoint, ip string) (*model.AggregateResponse, error) {
	if endpoint == "" {
		return nil, errors.New("aggregator endpoint not configured")
	}
	target, err := withIP(endpoint, ip)
	if err != nil {
		return nil, err
	}
	h := make(http.Header)
	h.Set("Accept", "application/json")

	status, body, err := c.do(ctx, node, target, h)
	if err != nil {
		return nil, err
	}

	var resp model.AggregateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if status < 200 || status > 299 {
			return nil, &StatusError{Code: status, Body: snippet(body)}
		}
		return nil, &MalformedError{Err: err}
	}
	if !resp.Success {
		if resp.Error == "" {
			return nil, errors.New("aggregator query failed")
		}
		return nil, errors.New(resp.Error)
	}
	if resp.Data == nil {
		return nil, &MalformedError{Err: errors.New("envelope has no data")}
	}
	return &resp, nil
}

func withIP(base, ip string) (string, error) {
	if ip == "" {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", base, err)
	}
	q := u.Query()
	q.Set("ip", ip)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func snippet(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}
