package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

// maxStdioMessage bounds a single line on the stdio transport.
const maxStdioMessage = 10 * 1024 * 1024

// ServeStdio reads newline-delimited JSON-RPC messages from r and writes the
// responses to w, one per line. Requests run concurrently; writes are
// serialized. It returns nil on EOF once in-flight requests have finished,
// or the context error if ctx ends first.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 4096), maxStdioMessage)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			msg := make([]byte, len(line))
			copy(msg, line)
			select {
			case lines <- msg:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	out := &stdioWriter{enc: json.NewEncoder(w)}
	g, gctx := errgroup.WithContext(ctx)

	s.logger.Infow("serving mcp over stdio", "server", s.name, "version", s.version)

	for {
		select {
		case <-gctx.Done():
			if err := g.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		case msg, ok := <-lines:
			if !ok {
				if err := g.Wait(); err != nil {
					return err
				}
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			g.Go(func() error {
				return out.write(s.handleMessage(gctx, msg))
			})
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, msg []byte) *MCPResponse {
	var req MCPRequest
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		s.logger.Debugw("rejecting malformed mcp message", "error", err)
		return errorResponse(nil, ErrorCodeParseError, "Parse error", map[string]interface{}{
			"details": err.Error(),
		})
	}
	return s.Handle(ctx, &req)
}

type stdioWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (w *stdioWriter) write(resp *MCPResponse) error {
	if resp == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(resp)
}
