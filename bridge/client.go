package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/zeu5/forage-rl/types"
)

// Client is a types.Driver backed by a bridge Server
type Client struct {
	base   string
	client *http.Client
}

var _ types.Driver = &Client{}

// NewClient for the server at addr, either host:port or a full URL
func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		base: strings.TrimSuffix(base, "/"),
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   5 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

// NewClientWith uses the given http client, httptest servers provide one
func NewClientWith(base string, client *http.Client) *Client {
	c := NewClient(base)
	c.client = client
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewBuffer(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(method, path, resp.StatusCode, data)
	}
	return data, nil
}

func decodeError(method, path string, status int, data []byte) error {
	e := errorResponse{}
	if err := json.Unmarshal(data, &e); err != nil {
		return fmt.Errorf("%s %s: status %d", method, path, status)
	}
	switch e.Kind {
	case kindNotConnected:
		return fmt.Errorf("%w: %s", types.ErrNotConnected, e.Error)
	case kindStopped:
		return fmt.Errorf("%w: %s", types.ErrSimulationStopped, e.Error)
	}
	return fmt.Errorf("%s %s: status %d: %s", method, path, status, e.Error)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	_, err := c.do(ctx, http.MethodPost, path, body)
	return err
}

func (c *Client) Connect(ctx context.Context) error {
	return c.post(ctx, "/connect", nil)
}

func (c *Client) Disconnect(ctx context.Context) error {
	return c.post(ctx, "/disconnect", nil)
}

func (c *Client) StartSimulation(ctx context.Context) error {
	return c.post(ctx, "/simulation/start", nil)
}

func (c *Client) StopSimulation(ctx context.Context) error {
	return c.post(ctx, "/simulation/stop", nil)
}

func (c *Client) WaitForStop(ctx context.Context) error {
	return c.post(ctx, "/simulation/wait", nil)
}

func (c *Client) SetPhoneTilt(ctx context.Context, position float64, speed int) error {
	return c.post(ctx, "/phone/tilt", tiltRequest{Position: position, Speed: speed})
}

func (c *Client) Move(ctx context.Context, left, right int, duration time.Duration) error {
	return c.post(ctx, "/move", moveRequest{Left: left, Right: right, DurationMS: duration.Milliseconds()})
}

func (c *Client) ImageFront(ctx context.Context) (image.Image, error) {
	data, err := c.do(ctx, http.MethodGet, "/camera/front", nil)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding camera image: %w", err)
	}
	return img, nil
}

func (c *Client) CollectedFood(ctx context.Context) (int, error) {
	data, err := c.do(ctx, http.MethodGet, "/food", nil)
	if err != nil {
		return 0, err
	}
	resp := foodResponse{}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("decoding food count: %w", err)
	}
	return resp.Food, nil
}
