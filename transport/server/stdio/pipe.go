package stdio

import (
	"context"
	"github.com/viant/mcprt/transport"
	"io"
)

// Pipe runs a stdio Server against an in-process pipe pair instead of a
// child process's stdin/stdout, so a client can embed its server in the
// same binary (and tests can drive the full line-framed protocol without
// spawning anything).
type Pipe struct {
	server    *Server
	serverIn  *io.PipeWriter
	clientOut *io.PipeReader
	done      chan error
}

// Reader returns the client-side end the embedded server's replies arrive
// on, one JSON message per line.
func (p *Pipe) Reader() io.Reader { return p.clientOut }

// Write sends raw bytes into the embedded server's input; callers append
// the terminating newline themselves, matching the wire framing.
func (p *Pipe) Write(data []byte) (int, error) {
	return p.serverIn.Write(data)
}

// Wait blocks until the embedded server loop ends.
func (p *Pipe) Wait() error {
	return <-p.done
}

// Close tears both pipe ends down, which stops the server loop with EOF.
func (p *Pipe) Close() error {
	_ = p.serverIn.Close()
	return p.clientOut.Close()
}

// NewPipe creates the in-process bridge: the embedded server reads what
// the caller writes via Write and its replies surface on Reader. The
// server loop starts immediately.
func NewPipe(ctx context.Context, newHandler transport.NewHandler, options ...Option) *Pipe {
	serverSideIn, clientSideWriter := io.Pipe()
	clientSideReader, serverSideOut := io.Pipe()
	server := New(ctx, newHandler,
		append([]Option{WithReader(serverSideIn), WithWriter(serverSideOut)}, options...)...)
	ret := &Pipe{
		server:    server,
		serverIn:  clientSideWriter,
		clientOut: clientSideReader,
		done:      make(chan error, 1),
	}
	go func() {
		ret.done <- server.ListenAndServe()
		_ = serverSideOut.Close()
	}()
	return ret
}
