// Package session drives one accepted connection: read a request with
// a bounded deadline, run it through the Kernel, write the response,
// and honor keep-alive. No net/http.Server involved — the wire parsing
// is stdlib's http.ReadRequest over a raw net.Conn, matching the
// engine's own low-level accept loop.
package session

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dispatchengine/engine/internal/controller"
	"github.com/dispatchengine/engine/internal/kernel"
	"github.com/dispatchengine/engine/internal/pkg/logger"
	"github.com/dispatchengine/engine/internal/state"
	"github.com/dispatchengine/engine/internal/token"
)

const readTimeout = 5 * time.Second

// Run loops reading requests off conn until cancellation, end of
// stream, or a non-keep-alive response. It always closes conn before
// returning.
func Run(ctx context.Context, conn net.Conn, st *state.State, issuer *token.Issuer, log *logger.Logger) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	for {
		if ctx.Err() != nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		req, err := http.ReadRequest(reader)
		if err != nil {
			// Covers a clean end-of-stream and a timed-out read alike;
			// both end the session without logging anything.
			return
		}

		resp := kernel.Handle(ctx, st, issuer, log, req)

		keepAlive := shouldKeepAlive(req, resp)
		if err := writeResponse(conn, req, resp, keepAlive); err != nil {
			log.Warn("session: write failed", "error", err)
			return
		}

		if !keepAlive {
			return
		}
	}
}

func shouldKeepAlive(req *http.Request, resp *controller.Response) bool {
	if req.Close {
		return false
	}
	if v := resp.Header.Get("Connection"); v == "close" {
		return false
	}
	return req.ProtoAtLeast(1, 1)
}

func writeResponse(w io.Writer, req *http.Request, resp *controller.Response, keepAlive bool) error {
	httpResp := &http.Response{
		StatusCode: resp.Status,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     resp.Header.Clone(),
		Request:    req,
	}
	if httpResp.Header == nil {
		httpResp.Header = http.Header{}
	}
	if keepAlive {
		httpResp.Header.Set("Connection", "keep-alive")
	} else {
		httpResp.Header.Set("Connection", "close")
	}
	if resp.Body != nil {
		httpResp.Body = io.NopCloser(bytes.NewReader(resp.Body))
		httpResp.ContentLength = int64(len(resp.Body))
	} else {
		httpResp.ContentLength = 0
	}
	return httpResp.Write(w)
}
