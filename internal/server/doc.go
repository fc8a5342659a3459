// Package server implements an MCP (Model Context Protocol) server that
// exposes the lane finder as tools.
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
// Geometry:
//   - lane_roi: Road trapezoid for a frame size
//
// Single frames, each analysed without history:
//   - lane_detect: Lane endpoints and classification counts
//   - lane_annotate: Frame with the lanes drawn, as base64 PNG
//   - lane_edges: Gray, edge or masked edge stage, as base64 PNG
//   - lane_segments: Hough segments with slope and assigned side
//
// Streams, where a side that is not found keeps the previous frame's line:
//   - lane_stream_open: Start a stream and get its id
//   - lane_stream_frame: Process the next frame of a stream
//   - lane_stream_close: Forget a stream
//
// Streams are independent of each other. Frames of one stream must be sent
// in temporal order.
//
// # Frame Caching
//
// Single frame tools load images through an in-memory cache keyed by path,
// so asking for the lanes, the edges and the segments of one still decodes
// it once. Stream frames bypass the cache.
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
//	srv, err := server.New(cfg, log)
//	if err != nil {
//	    return err
//	}
//	return srv.Run()
package server
