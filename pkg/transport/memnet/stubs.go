package memnet

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/beacon/pkg/notification"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

type sinkStub struct {
	net  *Network
	addr string
}

func (s *sinkStub) Address() string { return s.addr }

func (s *sinkStub) Notify(ctx context.Context, env notification.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sink, err := resolve[transport.SinkHandle](s.net, s.addr)
	if err != nil {
		return err
	}
	return sink.Notify(ctx, env)
}

type sourceStub struct {
	net  *Network
	addr string
}

func (s *sourceStub) Address() string { return s.addr }

func (s *sourceStub) Register(ctx context.Context, id uuid.UUID, sink transport.SinkHandle) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	src, err := resolve[transport.SourceHandle](s.net, s.addr)
	if err != nil {
		return uuid.Nil, err
	}
	sinkAddr, err := s.net.AddressOf(sink)
	if err != nil {
		return uuid.Nil, err
	}
	return src.Register(ctx, id, &sinkStub{net: s.net, addr: sinkAddr})
}

func (s *sourceStub) Unregister(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := resolve[transport.SourceHandle](s.net, s.addr)
	if err != nil {
		return err
	}
	return src.Unregister(ctx, id)
}

type directoryStub struct {
	sourceStub
}

func (d *directoryStub) RegisterSource(ctx context.Context, name string, src transport.SourceHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := resolve[transport.DirectoryHandle](d.net, d.addr)
	if err != nil {
		return err
	}
	srcAddr, err := d.net.AddressOf(src)
	if err != nil {
		return err
	}
	return dir.RegisterSource(ctx, name, &sourceStub{net: d.net, addr: srcAddr})
}

func (d *directoryStub) UnregisterSource(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := resolve[transport.DirectoryHandle](d.net, d.addr)
	if err != nil {
		return err
	}
	return dir.UnregisterSource(ctx, name)
}

type registryStub struct {
	net  *Network
	addr string
}

func (r *registryStub) Address() string { return r.addr }

func (r *registryStub) Lookup(ctx context.Context, name string) (string, error) {
	reg, err := r.net.registry(r.addr)
	if err != nil {
		return "", err
	}
	return reg.Lookup(ctx, name)
}

func (r *registryStub) Bind(ctx context.Context, name, addr string) error {
	reg, err := r.net.registry(r.addr)
	if err != nil {
		return err
	}
	return reg.Bind(ctx, name, addr)
}

func (r *registryStub) Rebind(ctx context.Context, name, addr string) error {
	reg, err := r.net.registry(r.addr)
	if err != nil {
		return err
	}
	return reg.Rebind(ctx, name, addr)
}

func (r *registryStub) Unbind(ctx context.Context, name string) error {
	reg, err := r.net.registry(r.addr)
	if err != nil {
		return err
	}
	return reg.Unbind(ctx, name)
}

func (r *registryStub) List(ctx context.Context) ([]string, error) {
	reg, err := r.net.registry(r.addr)
	if err != nil {
		return nil, err
	}
	return reg.List(ctx)
}
