// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package remoteexec

import (
	"context"

	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
)

// Transport sends an encoded Request to a remote worker and returns its
// encoded Response. Implementations wrap whatever wire transport a
// deployment uses (gRPC, a raw TCP framing, an in-process channel for
// tests); remoteexec itself is transport-agnostic.
type Transport interface {
	Send(ctx context.Context, target id.ID, encodedRequest []byte) (encodedResponse []byte, err error)
}

// Client dispatches ExecuteRemote calls to a target worker keyed by
// NodeId, routing through a table of per-target Transports.
type Client struct {
	transports map[id.ID]Transport
	fallback   Transport
}

// NewClient builds a Client with no routes; use Route to register
// per-target transports and WithFallback for an unrouted default.
func NewClient() *Client {
	return &Client{transports: make(map[id.ID]Transport)}
}

// Route installs transport as the handler for requests targeting
// workerID.
func (c *Client) Route(workerID id.ID, transport Transport) {
	c.transports[workerID] = transport
}

// WithFallback sets the transport used when no specific route matches.
func (c *Client) WithFallback(transport Transport) *Client {
	c.fallback = transport
	return c
}

// ExecuteRemote encodes req, sends it to workerID's transport, and
// decodes the response.
func (c *Client) ExecuteRemote(ctx context.Context, workerID id.ID, req Request) (Response, error) {
	transport, ok := c.transports[workerID]
	if !ok {
		transport = c.fallback
	}
	if transport == nil {
		return Response{}, xerrors.NotFoundf("remoteexec_route", workerID.String())
	}
	encoded, err := transport.Send(ctx, workerID, EncodeRequest(req))
	if err != nil {
		return Response{}, xerrors.Wrap(xerrors.RemoteFailure, err, "remoteexec: transport send failed")
	}
	return DecodeResponse(encoded)
}
