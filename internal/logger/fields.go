package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldTaskID is the asynchronous import task ID
	FieldTaskID = "task_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldSourceURL is the location of the CSV being imported
	FieldSourceURL = "source_url"
)

// Metric fields, attached per entry for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
