package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
)

// Transport writes line-delimited frames onto the TCP connection.
type Transport struct {
	conn net.Conn
	sync.Mutex
}

// SendData sends data, appending the newline delimiter when missing.
func (t *Transport) SendData(ctx context.Context, data []byte) error {
	t.Lock()
	defer t.Unlock()
	if t.conn == nil {
		return fmt.Errorf("transport is not initialized")
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
	}
	if _, err := t.conn.Write(data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		if _, err := t.conn.Write([]byte("\n")); err != nil {
			return fmt.Errorf("failed to write frame delimiter: %w", err)
		}
	}
	return nil
}
