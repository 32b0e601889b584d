// Package server implements the MCP (Model Context Protocol) server for the
// fiducial marker tools.
//
// # Protocol
//
// The server speaks JSON-RPC 2.0, one request per line:
//   - Input: JSON-RPC requests (stdin when run from the CLI)
//   - Output: JSON-RPC responses (stdout)
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load an image and report its metadata
//   - camera_info: Report a camera calibration
//   - marker_detect: Detect markers and estimate their poses
//   - marker_annotate: Draw an axis, cube or cylinder on detected markers
//   - marker_render: Render a printable marker
//
// Pose tools take an optional "calibration" path; without one they use the
// calibration the server was started with.
//
// # Image Caching
//
// Loaded images are cached by path for the lifetime of the server, so
// detecting and then annotating the same file decodes it once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with
// code -32000, the message "Tool execution failed" and the Go error string
// as data.
//
// # Usage
//
//	srv := server.New(server.WithCamera(cam), server.WithLogger(logger))
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    logger.Fatal(err)
//	}
package server
