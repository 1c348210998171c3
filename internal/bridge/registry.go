// # internal/bridge/registry.go
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	coreerrors "github.com/kunai-consulting/qwikbridge/internal/core/errors"
	"github.com/kunai-consulting/qwikbridge/internal/shared/observability"
)

// Handler executes one bridge command against its raw JSON arguments.
type Handler func(ctx context.Context, raw json.RawMessage) (any, error)

// Registry maps command names to handlers. Registration order is kept for
// stable command listings.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		order:    make([]string, 0),
	}
}

func (r *Registry) Register(command string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	if command == "" {
		return fmt.Errorf("command name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[command]; exists {
		return fmt.Errorf("command already registered: %s", command)
	}
	r.handlers[command] = handler
	r.order = append(r.order, command)
	return nil
}

func (r *Registry) HandlerFor(command string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[command]
	return h, ok
}

func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Dispatch looks up and runs a command, recording duration and failure
// metrics around the call. Unknown commands fail with not_found.
func (r *Registry) Dispatch(ctx context.Context, command string, raw json.RawMessage) (any, error) {
	ctx, span := observability.Tracer.Start(ctx, "bridge.dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("bridge.command", command))

	handler, ok := r.HandlerFor(command)
	if !ok {
		observability.BridgeCommandErrorsTotal.WithLabelValues(command).Inc()
		return nil, CommandError{
			Code:    ErrorNotFound,
			Message: fmt.Sprintf("unknown command: %s", command),
		}
	}

	start := time.Now()
	result, err := handler(ctx, raw)
	observability.BridgeCommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.BridgeCommandErrorsTotal.WithLabelValues(command).Inc()
		var domErr *coreerrors.DomainError
		if errors.As(err, &domErr) {
			domErr.WithContext(coreerrors.CtxCommand, command)
		}
		return nil, err
	}
	return result, nil
}

// NormalizeError flattens any handler error into the wire form. Domain
// error codes map onto wire codes so callers can branch without parsing
// messages.
func NormalizeError(err error) CommandError {
	var cmdErr CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr
	}

	var domErr *coreerrors.DomainError
	if errors.As(err, &domErr) {
		return CommandError{
			Code:    wireCode(domErr.Code),
			Message: domErr.Error(),
			Details: domErr.Context,
		}
	}
	return CommandError{Code: ErrorInternal, Message: err.Error()}
}

func wireCode(code coreerrors.ErrorCode) string {
	switch code {
	case coreerrors.CodeInvalidArgument:
		return ErrorInvalidArgument
	case coreerrors.CodeMissingExport:
		return ErrorMissingExport
	case coreerrors.CodeResolutionFailure:
		return ErrorNotFound
	default:
		return ErrorInternal
	}
}
