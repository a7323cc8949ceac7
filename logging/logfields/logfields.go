// Package logfields holds the structured field names shared by csim loggers.
package logfields

const (
	// LogComponent names the package or command emitting the entry.
	LogComponent = "component"

	// Trace is the path of the trace being replayed.
	Trace = "trace"

	// Model is the cache model kind.
	Model = "model"

	// Geometry is the cache geometry in s/E/b form.
	Geometry = "geometry"
)
