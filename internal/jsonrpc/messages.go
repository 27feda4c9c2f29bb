package jsonrpc

import "encoding/json"

// ProtocolVersion is the supported JSON-RPC protocol version.
const ProtocolVersion = "2.0"

// Response represents a JSON-RPC response. The ID field deliberately has no
// omitempty: a response built for a request whose id could not be recovered
// must still serialize "id": null.
type Response struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *RequestID      `json:"id"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

// NewErrorResponse builds an error JSON-RPC response with the given code.
func NewErrorResponse(id *RequestID, code ErrorCode, message string, data any) *Response {
	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
}

// Peek extracts the request id and method from a raw JSON-RPC message
// without validating it. The message bytes are never modified; if they do
// not decode, both results are zero. A decode failure here only degrades the
// correlation quality of a later error reply.
func Peek(raw []byte) (*RequestID, string) {
	var probe struct {
		ID     *RequestID `json:"id"`
		Method string     `json:"method"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, ""
	}
	return probe.ID, probe.Method
}
