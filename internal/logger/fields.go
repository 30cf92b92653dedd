package logger

// Standard field keys for structured logging across name node, storage
// node, and client code. Keep this list short and specific to the
// sentence-document file service rather than a generic catalog.
const (
	KeyAddr    = "addr"    // remote ip:port of the connection
	KeyUser    = "user"    // authenticated username
	KeyFile    = "file"    // filename the operation concerns
	KeyCommand = "command" // wire verb being processed
	KeySSID    = "ss_id"   // storage node identifier
	KeyErr     = "error"
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"
	KeyCorrID  = "corr_id" // correlation ID assigned to a client or control session
)
