// Package bridge adapts the MCP stdio transport to a streamable HTTP
// endpoint. It reads newline-delimited JSON-RPC messages from an input
// stream, forwards each one verbatim as an HTTP POST, threads the
// Mcp-Session-Id token across calls, and converts every transport failure
// into a well-formed JSON-RPC error reply on the output stream.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 upstream caller, 1 downstream endpoint
//	Flow             : strictly sequential; one request in flight at a time
//	Sessions         : single in-process token, never persisted
//	Payloads         : opaque; forwarded byte-for-byte, never re-encoded
//
// Options allow supplying alternate io.Reader / io.Writer, a custom
// *http.Client, or a custom logger. A per-iteration failure never ends the
// loop; only exhaustion of the input stream does.
package bridge
