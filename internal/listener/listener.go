// Package listener runs the accept loop: bind once, then hand each new
// connection to a tracked session under the shutdown group.
package listener

import (
	"context"
	"net"

	"github.com/dispatchengine/engine/internal/pkg/logger"
	"github.com/dispatchengine/engine/internal/session"
	"github.com/dispatchengine/engine/internal/shutdown"
	"github.com/dispatchengine/engine/internal/state"
	"github.com/dispatchengine/engine/internal/token"
)

// Run binds addr, publishes the bound port and running flag onto st,
// then accepts connections until ctx is cancelled. Each connection is
// registered with group so a shutdown can cancel or force-close it.
func Run(ctx context.Context, addr string, st *state.State, issuer *token.Issuer, group *shutdown.Group, log *logger.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		st.SetPort(uint16(tcpAddr.Port))
	}
	st.SetRunning(true)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		group.Adapt(func(sessionCtx context.Context) error {
			session.Run(sessionCtx, conn, st, issuer, log)
			return nil
		}, func() { conn.Close() })
	}
}
