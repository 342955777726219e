package jsonutil

const (
	// DefaultJSONIndent is the indent string used by MarshalIndent callers that
	// don't specify their own.
	DefaultJSONIndent = "  "

	// MaxJSONSize bounds the size of a document Unmarshal will accept, guarding
	// against OOM from a malicious or misbehaving upstream.
	MaxJSONSize = 10 * 1024 * 1024 // 10MB
)
