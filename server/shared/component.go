package shared

import "context"

// Component is a long lived part of the server that is shut down in order
// when the server stops.
type Component interface {
	// Name returns the component type identifier
	Name() string

	// Shutdown releases the resources held by the component
	Shutdown(ctx context.Context) error
}
