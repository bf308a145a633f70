package server

import (
	"context"
	"fmt"

	"github.com/kbukum/draftkit/component"
)

const componentName = "http-server"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps Server for the component registry.
type Component struct {
	server  *Server
	started bool
}

// NewComponent returns a component backed by the given Server.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the component name used for registration.
func (sc *Component) Name() string { return componentName }

// Start starts the underlying HTTP server.
func (sc *Component) Start(ctx context.Context) error {
	if err := sc.server.Start(ctx); err != nil {
		return err
	}
	sc.started = true
	return nil
}

// Stop gracefully shuts down the underlying HTTP server.
func (sc *Component) Stop(ctx context.Context) error {
	sc.started = false
	return sc.server.Stop(ctx)
}

// Health reports healthy while the server is listening.
func (sc *Component) Health(_ context.Context) component.Health {
	if !sc.started {
		return component.Health{
			Name:    componentName,
			Status:  component.StatusUnhealthy,
			Message: "not listening",
		}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy, Message: sc.server.Addr()}
}

// Describe returns summary info for /info.
func (sc *Component) Describe() component.Description {
	cfg := sc.server.config
	details := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	if cfg.RateLimit.RequestsPerMinute > 0 {
		details += fmt.Sprintf(" rate_limit=%d/min", cfg.RateLimit.RequestsPerMinute)
	}
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: details,
	}
}
