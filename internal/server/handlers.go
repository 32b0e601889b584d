package server

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ironsheep/fiducial-tools/internal/annotate"
	"github.com/ironsheep/fiducial-tools/internal/camera"
	"github.com/ironsheep/fiducial-tools/internal/imaging"
	"github.com/ironsheep/fiducial-tools/internal/marker"
	"github.com/ironsheep/fiducial-tools/internal/results"
)

// errNoCalibration is returned by pose tools when neither the call nor the
// server supplies a camera calibration.
var errNoCalibration = errors.New("no camera calibration: pass \"calibration\" or start the server with one")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "marker_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// imageContent is a tool result carrying a PNG. It is returned to the client
// as MCP image content followed by Summary as text content.
type imageContent struct {
	PNGBase64 string
	Summary   interface{}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tools that return an image add an "image" item before the text.
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warnw("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	var content []map[string]interface{}
	if img, ok := result.(*imageContent); ok {
		content = append(content, map[string]interface{}{
			"type":     "image",
			"data":     img.PNGBase64,
			"mimeType": "image/png",
		})
		result = img.Summary
	}
	content = append(content, map[string]interface{}{
		"type": "text",
		"text": mustMarshalJSON(result),
	})

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": content,
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "camera_info":
		return s.handleCameraInfo(args)
	case "marker_detect":
		return s.handleMarkerDetect(ctx, args)
	case "marker_annotate":
		return s.handleMarkerAnnotate(ctx, args)
	case "marker_render":
		return s.handleMarkerRender(args)
	default:
		return nil, errors.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{
		Code:    code,
		Message: message,
	}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, treating absent arguments as empty.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return errors.Wrap(err, "invalid arguments")
	}
	return nil
}

// cameraFor loads the named calibration, or falls back to the server's.
func (s *Server) cameraFor(path string) (*camera.Model, error) {
	if path != "" {
		return camera.Load(path)
	}
	if s.camera == nil {
		return nil, errNoCalibration
	}
	return s.camera, nil
}

// === Image and Calibration Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type cameraInfoArgs struct {
	Calibration string `json:"calibration"`
}

// CameraInfo describes a camera calibration.
type CameraInfo struct {
	Fx         float64       `json:"fx"`
	Fy         float64       `json:"fy"`
	Cx         float64       `json:"cx"`
	Cy         float64       `json:"cy"`
	Matrix     [3][3]float64 `json:"matrix"`
	Distortion []float64     `json:"distortion"`
	Width      int           `json:"width_px,omitempty"`
	Height     int           `json:"height_px,omitempty"`
}

func (s *Server) handleCameraInfo(args json.RawMessage) (interface{}, error) {
	var a cameraInfoArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cam, err := s.cameraFor(a.Calibration)
	if err != nil {
		return nil, err
	}

	info := &CameraInfo{
		Fx:         cam.Fx(),
		Fy:         cam.Fy(),
		Cx:         cam.Cx(),
		Cy:         cam.Cy(),
		Distortion: cam.Distortion().Coefficients(),
		Width:      cam.Width,
		Height:     cam.Height,
	}
	k := cam.Intrinsics()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			info.Matrix[r][c] = k[r*3+c]
		}
	}
	return info, nil
}

// === Marker Handlers ===

type markerDetectArgs struct {
	Path        string `json:"path"`
	Calibration string `json:"calibration"`
}

func (s *Server) detect(ctx context.Context, path, calibration string) (marker.List, *camera.Model, error) {
	if path == "" {
		return nil, nil, errors.New("path is required")
	}
	cam, err := s.cameraFor(calibration)
	if err != nil {
		return nil, nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, nil, err
	}
	list, err := s.locator.Detect(ctx, img, cam)
	if err != nil {
		return nil, nil, err
	}
	return list, cam, nil
}

func (s *Server) handleMarkerDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a markerDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	list, _, err := s.detect(ctx, a.Path, a.Calibration)
	if err != nil {
		return nil, err
	}
	return &results.Image{
		Path:    a.Path,
		Markers: results.FromList(list),
	}, nil
}

type markerAnnotateArgs struct {
	Path        string `json:"path"`
	Shape       string `json:"shape"`
	MarkerID    *int   `json:"marker_id"`
	Calibration string `json:"calibration"`
	OutputPath  string `json:"output_path"`
}

// AnnotateResult summarizes a marker_annotate call.
type AnnotateResult struct {
	Path       string `json:"path"`
	Shape      string `json:"shape"`
	Annotated  []int  `json:"annotated"`
	OutputPath string `json:"output_path,omitempty"`
}

func (s *Server) handleMarkerAnnotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a markerAnnotateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	shape, err := annotate.ParseShape(a.Shape)
	if err != nil {
		return nil, err
	}
	list, cam, err := s.detect(ctx, a.Path, a.Calibration)
	if err != nil {
		return nil, err
	}

	ids := list.IDs()
	if a.MarkerID != nil {
		if _, err := list.Find(*a.MarkerID); err != nil {
			return nil, err
		}
		ids = []int{*a.MarkerID}
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	canvas := imaging.ToRGBA(img)
	for _, id := range ids {
		if _, err := annotate.Draw(shape, canvas, list, id, cam, s.draw...); err != nil {
			return nil, errors.Wrapf(err, "draw %s on marker %d", shape, id)
		}
	}

	summary := &AnnotateResult{Path: a.Path, Shape: string(shape), Annotated: ids}
	if a.OutputPath != "" {
		if err := imaging.Save(canvas, a.OutputPath, imaging.DefaultJPEGQuality); err != nil {
			return nil, err
		}
		summary.OutputPath = a.OutputPath
		return summary, nil
	}
	encoded, err := imaging.EncodePNGBase64(canvas)
	if err != nil {
		return nil, err
	}
	return &imageContent{PNGBase64: encoded, Summary: summary}, nil
}

type markerRenderArgs struct {
	ID         int    `json:"id"`
	CellPx     int    `json:"cell_px"`
	Quiet      *int   `json:"quiet"`
	OutputPath string `json:"output_path"`
}

// RenderResult summarizes a marker_render call.
type RenderResult struct {
	ID         int    `json:"id"`
	Dictionary string `json:"dictionary"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	OutputPath string `json:"output_path,omitempty"`
}

func (s *Server) handleMarkerRender(args json.RawMessage) (interface{}, error) {
	var a markerRenderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.CellPx == 0 {
		a.CellPx = 20
	}
	quiet := 1
	if a.Quiet != nil {
		quiet = *a.Quiet
	}

	img, err := s.dict.Render(a.ID, a.CellPx, quiet)
	if err != nil {
		return nil, err
	}
	summary := &RenderResult{
		ID:         a.ID,
		Dictionary: s.dict.Name,
		Width:      img.Bounds().Dx(),
		Height:     img.Bounds().Dy(),
	}
	if a.OutputPath != "" {
		if err := imaging.Save(img, a.OutputPath, imaging.DefaultJPEGQuality); err != nil {
			return nil, err
		}
		summary.OutputPath = a.OutputPath
		return summary, nil
	}
	encoded, err := imaging.EncodePNGBase64(img)
	if err != nil {
		return nil, err
	}
	return &imageContent{PNGBase64: encoded, Summary: summary}, nil
}
