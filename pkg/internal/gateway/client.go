package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	DefaultReadTimeout  = 20 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

type Client struct {
	Endpoint     string
	Token        string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	HTTPClient   *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.Token = token }
}

func WithTimeouts(read, write time.Duration) Option {
	return func(c *Client) {
		if read > 0 {
			c.ReadTimeout = read
		}
		if write > 0 {
			c.WriteTimeout = write
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		Endpoint:     strings.TrimRight(endpoint, "/"),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		HTTPClient:   &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewFromSettings builds a client from the loaded settings file.
func NewFromSettings(token string) *Client {
	return New(
		viper.GetString("endpoint"),
		WithToken(token),
		WithTimeouts(viper.GetDuration("timeouts.read"), viper.GetDuration("timeouts.write")),
	)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (Result, error) {
	timeout := lo.Ternary(method == http.MethodGet, c.ReadTimeout, c.WriteTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := jsoniter.Marshal(body)
		if err != nil {
			return Result{}, &Error{Message: "unable to encode request body", Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	target := c.Endpoint + path
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return Result{}, &Error{Message: "unable to build request", Err: err}
	}
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if len(c.Token) > 0 {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+c.Token)
	}

	log.Debug().Str("method", method).Str("url", target).Msg("Sending request...")
	start := time.Now()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Result{}, &Error{Message: fmt.Sprintf("%s %s failed", method, path), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &Error{Status: resp.StatusCode, Message: "failed to read response body", Err: err}
	}

	log.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Request settled.")

	return decodeResult(resp.StatusCode, raw)
}

func segment(value string) string {
	return url.PathEscape(value)
}
