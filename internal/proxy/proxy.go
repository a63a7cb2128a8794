// Package proxy relays gateway requests to an upstream REST service and
// streams the upstream response back to the caller.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/karulmca/ScurmBoard/internal/metrics"
)

const (
	AllowMethods = "GET,POST,PATCH,PUT,DELETE,OPTIONS"
	AllowHeaders = "Content-Type,Authorization,X-Requested-With"

	defaultUnavailable = "FastAPI backend unavailable"
)

// hop-by-hop response headers that are never relayed
var hopByHop = map[string]bool{
	"Connection":        true,
	"Transfer-Encoding": true,
	"Keep-Alive":        true,
}

type Options struct {
	// Name labels the upstream in logs and metrics.
	Name string
	// Unavailable is the error message of the 502 response.
	Unavailable string
	// ResponseHeaderTimeout bounds the wait for upstream headers; 0 waits forever.
	ResponseHeaderTimeout time.Duration
	// Client overrides the HTTP client built from the options above.
	Client *http.Client
}

type Proxy struct {
	name        string
	unavailable string
	base        *url.URL
	client      *http.Client
}

func New(baseURL string, opts Options) (*Proxy, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q must be http or https", baseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("upstream url %q has no host", baseURL)
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost:   32,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
			},
			// Redirects are the caller's business.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	name := opts.Name
	if name == "" {
		name = base.Host
	}
	unavailable := opts.Unavailable
	if unavailable == "" {
		unavailable = defaultUnavailable
	}

	return &Proxy{
		name:        name,
		unavailable: unavailable,
		base:        base,
		client:      client,
	}, nil
}

func (p *Proxy) Name() string { return p.name }

// BaseURL returns a copy of the upstream base URL.
func (p *Proxy) BaseURL() *url.URL {
	u := *p.base
	return &u
}

// TargetURL joins base and targetPath. targetPath may carry its own query;
// when it does not, rawQuery (the caller's query string) is used.
func TargetURL(base *url.URL, targetPath, rawQuery string) (*url.URL, error) {
	ref, err := url.Parse(targetPath)
	if err != nil {
		return nil, fmt.Errorf("parse target path %q: %w", targetPath, err)
	}

	u := *base
	basePath := strings.TrimRight(base.Path, "/")
	baseRaw := strings.TrimRight(base.EscapedPath(), "/")
	refPath := ref.Path
	refRaw := ref.EscapedPath()
	if !strings.HasPrefix(refPath, "/") {
		refPath = "/" + refPath
		refRaw = "/" + refRaw
	}
	u.Path = basePath + refPath
	u.RawPath = baseRaw + refRaw
	u.Fragment = ""

	if strings.Contains(targetPath, "?") {
		u.RawQuery = ref.RawQuery
	} else {
		u.RawQuery = rawQuery
	}
	return &u, nil
}

// Forward relays the current request to targetPath on the upstream and
// streams the response back. JSON bodies of POST/PATCH/PUT are decoded and
// re-encoded; every other body is passed through byte for byte.
func (p *Proxy) Forward(c *fiber.Ctx, targetPath string) error {
	target, err := TargetURL(p.base, targetPath, string(c.Request().URI().QueryString()))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	body, isJSON, err := outboundBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Invalid JSON body",
			"detail": err.Error(),
		})
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), c.Method(), target.String(), reader)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	c.Request().Header.VisitAll(func(k, v []byte) {
		key := http.CanonicalHeaderKey(string(k))
		if key == "Host" || key == "Content-Length" {
			return
		}
		req.Header.Add(key, string(v))
	})
	req.Host = target.Host
	req.ContentLength = int64(len(body))
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Del("Content-Encoding")
	}
	if prior := req.Header.Get("X-Forwarded-For"); prior != "" {
		req.Header.Set("X-Forwarded-For", prior+", "+c.IP())
	} else {
		req.Header.Set("X-Forwarded-For", c.IP())
	}
	if req.Header.Get("X-Forwarded-Host") == "" {
		req.Header.Set("X-Forwarded-Host", c.Hostname())
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return p.unavailableResponse(c, req, err)
	}

	c.Status(resp.StatusCode)
	copyResponseHeaders(c, resp.Header)
	SetCORSHeaders(c)

	if c.Method() == fiber.MethodHead || resp.StatusCode == fiber.StatusNoContent || resp.StatusCode == fiber.StatusNotModified {
		resp.Body.Close()
		return nil
	}

	size := -1
	if resp.ContentLength >= 0 {
		size = int(resp.ContentLength)
	}
	// fasthttp closes resp.Body once it has been fully written.
	c.Context().SetBodyStream(resp.Body, size)
	return nil
}

func (p *Proxy) unavailableResponse(c *fiber.Ctx, req *http.Request, err error) error {
	slog.Error("Proxy upstream error",
		"upstream", p.name,
		"method", req.Method,
		"target", req.URL.String(),
		"error", err,
	)
	metrics.RecordUpstreamError(p.name)
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"error":  p.unavailable,
		"detail": err.Error(),
	})
}

// SetCORSHeaders stamps the CORS headers every proxied response carries.
func SetCORSHeaders(c *fiber.Ctx) {
	origin := c.Get(fiber.HeaderOrigin)
	if origin == "" {
		origin = "*"
	}
	c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
	c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
	c.Set(fiber.HeaderAccessControlAllowMethods, AllowMethods)
	c.Set(fiber.HeaderAccessControlAllowHeaders, AllowHeaders)
}

func copyResponseHeaders(c *fiber.Ctx, h http.Header) {
	for key, values := range h {
		if hopByHop[key] || key == "Content-Length" {
			continue
		}
		c.Response().Header.Del(key)
		for _, v := range values {
			c.Response().Header.Add(key, v)
		}
	}
}

// outboundBody returns the bytes to send upstream. Only POST, PATCH and PUT
// carry a body.
func outboundBody(c *fiber.Ctx) ([]byte, bool, error) {
	switch c.Method() {
	case fiber.MethodPost, fiber.MethodPatch, fiber.MethodPut:
	default:
		return nil, false, nil
	}

	if !isJSONContentType(c.Get(fiber.HeaderContentType)) {
		raw := c.Request().Body()
		// fiber reuses the request buffer once the handler returns
		return append([]byte(nil), raw...), false, nil
	}

	out, err := reencodeJSON(c.Body())
	return out, true, err
}

func isJSONContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == fiber.MIMEApplicationJSON || strings.HasSuffix(mt, "+json")
}

func reencodeJSON(raw []byte) ([]byte, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []byte("{}"), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
