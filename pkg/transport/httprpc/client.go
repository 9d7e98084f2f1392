package httprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/beacon/pkg/notification"
	"github.com/dmitrymomot/beacon/pkg/registry"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

// call performs one request. A nil out discards the response body.
func (n *Node) call(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := middleware.GetReqID(ctx); id != "" {
		req.Header.Set(middleware.RequestIDHeader, id)
	}

	resp, err := n.opts.client.Do(req)
	if err != nil {
		return errors.Join(transport.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return errors.Join(transport.ErrUnreachable, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Join(ErrBadResponse, err)
	}
	return nil
}

type registryClient struct {
	node *Node
	base string
}

var _ registry.Registry = (*registryClient)(nil)

func (c *registryClient) Address() string { return c.base }

func (c *registryClient) Lookup(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", registry.ErrEmptyName
	}
	var resp bindingResponse
	if err := c.node.call(ctx, http.MethodGet, c.url(name), nil, &resp); err != nil {
		return "", err
	}
	return resp.Address, nil
}

func (c *registryClient) Bind(ctx context.Context, name, addr string) error {
	if name == "" {
		return registry.ErrEmptyName
	}
	return c.node.call(ctx, http.MethodPost, c.url(name), bindingRequest{Address: addr}, nil)
}

func (c *registryClient) Rebind(ctx context.Context, name, addr string) error {
	if name == "" {
		return registry.ErrEmptyName
	}
	return c.node.call(ctx, http.MethodPut, c.url(name), bindingRequest{Address: addr}, nil)
}

func (c *registryClient) Unbind(ctx context.Context, name string) error {
	if name == "" {
		return registry.ErrEmptyName
	}
	return c.node.call(ctx, http.MethodDelete, c.url(name), nil, nil)
}

func (c *registryClient) List(ctx context.Context) ([]string, error) {
	var resp namesResponse
	if err := c.node.call(ctx, http.MethodGet, c.base, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Names, nil
}

func (c *registryClient) url(name string) string {
	return c.base + "/" + url.PathEscape(name)
}

type sourceClient struct {
	node *Node
	addr string
}

func (c *sourceClient) Address() string { return c.addr }

func (c *sourceClient) Register(ctx context.Context, id uuid.UUID, sink transport.SinkHandle) (uuid.UUID, error) {
	sinkAddr, err := c.node.AddressOf(sink)
	if err != nil {
		return uuid.Nil, err
	}
	var resp registerResponse
	if err := c.node.call(ctx, http.MethodPost, c.addr+"/subscribers", registerRequest{ID: id, Sink: sinkAddr}, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.ID, nil
}

func (c *sourceClient) Unregister(ctx context.Context, id uuid.UUID) error {
	return c.node.call(ctx, http.MethodDelete, c.addr+"/subscribers/"+id.String(), nil, nil)
}

type directoryClient struct {
	sourceClient
}

func (c *directoryClient) RegisterSource(ctx context.Context, name string, src transport.SourceHandle) error {
	srcAddr, err := c.node.AddressOf(src)
	if err != nil {
		return err
	}
	return c.node.call(ctx, http.MethodPost, c.addr+"/sources", sourceRequest{Name: name, Address: srcAddr}, nil)
}

func (c *directoryClient) UnregisterSource(ctx context.Context, name string) error {
	return c.node.call(ctx, http.MethodDelete, c.addr+"/sources/"+url.PathEscape(name), nil, nil)
}

type sinkClient struct {
	node *Node
	addr string
}

func (c *sinkClient) Address() string { return c.addr }

func (c *sinkClient) Notify(ctx context.Context, env notification.Envelope) error {
	return c.node.call(ctx, http.MethodPost, c.addr+"/notify", env, nil)
}
