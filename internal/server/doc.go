// Package server implements the MCP (Model Context Protocol) server that
// exposes the lesion segmentation workflows as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - dataset_split: Deterministic train/validation partition of the images directory
//   - dataset_investigate: Shapes, class IDs and sampled mask panels of the training partition
//   - lesion_predict: Detect the lesion in one image, with an optional base64 PNG overlay
//
// Every tool runs against the configuration the server was started with.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(a, version)
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.WithError(err).Fatal("server error")
//	}
package server
