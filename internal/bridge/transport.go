// # internal/bridge/transport.go
package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/kunai-consulting/qwikbridge/internal/shared/util"
)

// Stdio serves bridge commands over newline-delimited JSON: one request
// object in, one response object out. The test runner keeps the process
// alive for the whole run, so requests are handled sequentially on one
// goroutine and ordering is implicit.
type Stdio struct {
	registry    *Registry
	descriptors []CommandDescriptor
	limiter     *util.Limiter

	in  io.Reader
	out io.Writer

	mu      sync.Mutex
	running bool
}

// NewStdio wires the transport to os.Stdin/os.Stdout. requestsPerMinute
// <= 0 disables rate limiting.
func NewStdio(registry *Registry, descriptors []CommandDescriptor, requestsPerMinute, burst int) *Stdio {
	s := &Stdio{
		registry:    registry,
		descriptors: descriptors,
		in:          os.Stdin,
		out:         os.Stdout,
	}
	if requestsPerMinute > 0 {
		s.limiter = util.NewLimiter(float64(requestsPerMinute)/60.0, burst)
	}
	return s
}

// SetIO swaps the transport's streams; used by tests.
func (s *Stdio) SetIO(in io.Reader, out io.Writer) {
	s.in = in
	s.out = out
}

type commandRequest struct {
	ID      any             `json:"id,omitempty"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

type commandResponse struct {
	ID     any           `json:"id,omitempty"`
	OK     bool          `json:"ok"`
	Result any           `json:"result,omitempty"`
	Error  *CommandError `json:"error,omitempty"`
}

// Serve processes requests until EOF or context cancellation. A second
// concurrent Serve call blocks until the context ends.
func (s *Stdio) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	decoder := json.NewDecoder(bufio.NewReader(s.in))
	writer := bufio.NewWriter(s.out)
	encoder := json.NewEncoder(writer)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var req commandRequest
		if err := decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		resp := s.handle(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}
}

func (s *Stdio) handle(ctx context.Context, req commandRequest) commandResponse {
	resp := commandResponse{ID: req.ID}

	if s.limiter != nil && !s.limiter.Allow(1) {
		resp.Error = &CommandError{Code: ErrorRateLimited, Message: "rate limit exceeded"}
		return resp
	}

	// The listing is answered by the transport itself; everything else
	// goes through the registry.
	if req.Command == "commands" {
		resp.OK = true
		resp.Result = map[string]any{"commands": s.describe()}
		return resp
	}

	result, err := s.registry.Dispatch(ctx, req.Command, req.Args)
	if err != nil {
		cmdErr := NormalizeError(err)
		resp.Error = &cmdErr
		return resp
	}
	resp.OK = true
	resp.Result = result
	return resp
}

// describe returns the configured descriptors, falling back to bare names
// from the registry when no descriptor document was loaded.
func (s *Stdio) describe() []CommandDescriptor {
	if len(s.descriptors) > 0 {
		return s.descriptors
	}
	commands := s.registry.Commands()
	out := make([]CommandDescriptor, 0, len(commands))
	for _, name := range commands {
		out = append(out, CommandDescriptor{Name: name})
	}
	return out
}
