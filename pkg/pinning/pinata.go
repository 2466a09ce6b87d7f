// Package pinning stores files on IPFS through the Pinata pinning API.
package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rpmweb/rpm-api/pkg/metrics"
)

var ErrNotConfigured = errors.New("pinning service not configured")

type PinResult struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type Service interface {
	Upload(ctx context.Context, name string, content io.Reader, keyvalues map[string]string) (*PinResult, error)
	Remove(ctx context.Context, hash string) error
	Exists(ctx context.Context, hash string) (bool, error)
	GatewayURL(hash string) string
}

type Config struct {
	APIURL     string
	GatewayURL string
	JWT        string
	Timeout    time.Duration
}

type PinataClient struct {
	http    *http.Client
	apiURL  string
	gateway string
	jwt     string
	metrics *metrics.Metrics
}

func NewPinataClient(cfg Config, m *metrics.Metrics) *PinataClient {
	return &PinataClient{
		http:    &http.Client{Timeout: cfg.Timeout},
		apiURL:  strings.TrimRight(cfg.APIURL, "/"),
		gateway: strings.TrimRight(cfg.GatewayURL, "/"),
		jwt:     cfg.JWT,
		metrics: m,
	}
}

func (c *PinataClient) GatewayURL(hash string) string {
	return c.gateway + "/" + hash
}

func (c *PinataClient) Upload(ctx context.Context, name string, content io.Reader, keyvalues map[string]string) (result *PinResult, err error) {
	defer c.observe("upload", time.Now(), &err)
	if c.jwt == "" {
		return nil, ErrNotConfigured
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	meta, _ := json.Marshal(map[string]interface{}{"name": name, "keyvalues": keyvalues})
	if err := w.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, err
	}
	if err := w.WriteField("pinataOptions", `{"cidVersion":1}`); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	result = &PinResult{}
	if err := c.do(req, result); err != nil {
		return nil, fmt.Errorf("failed to pin file: %w", err)
	}
	return result, nil
}

func (c *PinataClient) Remove(ctx context.Context, hash string) (err error) {
	defer c.observe("remove", time.Now(), &err)
	if c.jwt == "" {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.apiURL+"/pinning/unpin/"+url.PathEscape(hash), nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("failed to unpin file: %w", err)
	}
	return nil
}

func (c *PinataClient) Exists(ctx context.Context, hash string) (ok bool, err error) {
	defer c.observe("exists", time.Now(), &err)
	if c.jwt == "" {
		return false, ErrNotConfigured
	}

	q := url.Values{"status": {"pinned"}, "hashContains": {hash}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/data/pinList?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}

	var list struct {
		Count int `json:"count"`
	}
	if err := c.do(req, &list); err != nil {
		return false, fmt.Errorf("failed to list pins: %w", err)
	}
	return list.Count > 0, nil
}

func (c *PinataClient) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pinata returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *PinataClient) observe(op string, start time.Time, err *error) {
	if c.metrics == nil {
		return
	}
	c.metrics.ExternalLatency.WithLabelValues("pinata").Observe(time.Since(start).Seconds())
	c.metrics.ObservePin(op, *err)
}
