package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/fiducial-tools/internal/results"
	"github.com/ironsheep/fiducial-tools/internal/testscene"
)

// writePNG writes img into a temp directory and returns its path.
func writePNG(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// writeCalibration writes a distortion-free JSON calibration matching the
// test scene.
func writeCalibration(t *testing.T) string {
	t.Helper()
	doc := `{"intrinsic_parameters": {"width_px": 640, "height_px": 480, "fx": 700, "fy": 700, "ppx": 320, "ppy": 240}}`
	path := filepath.Join(t.TempDir(), "camera.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("failed to write calibration: %v", err)
	}
	return path
}

// callTool issues a tools/call request and returns the response content.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) ([]map[string]interface{}, *MCPError) {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("Result should be a map, got %T", resp.Result)
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) == 0 {
		t.Fatalf("Result content missing: %v", result)
	}
	return content, nil
}

// textResult decodes the trailing text item of a tool response into v.
func textResult(t *testing.T, content []map[string]interface{}, v interface{}) {
	t.Helper()
	last := content[len(content)-1]
	if last["type"] != "text" {
		t.Fatalf("last content item type = %v, want text", last["type"])
	}
	if err := json.Unmarshal([]byte(last["text"].(string)), v); err != nil {
		t.Fatalf("text content is not JSON: %v", err)
	}
}

// imageResult decodes the leading image item of a tool response.
func imageResult(t *testing.T, content []map[string]interface{}) image.Image {
	t.Helper()
	first := content[0]
	if first["type"] != "image" || first["mimeType"] != "image/png" {
		t.Fatalf("first content item = %v/%v, want image/png", first["type"], first["mimeType"])
	}
	raw, err := base64.StdEncoding.DecodeString(first["data"].(string))
	if err != nil {
		t.Fatalf("image data is not base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("image data is not PNG: %v", err)
	}
	return img
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("error = %+v, want code -32602", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := New()
	_, rpcErr := callTool(t, s, "image_crop", map[string]interface{}{})
	if rpcErr == nil {
		t.Fatal("expected an error for an unknown tool")
	}
	if rpcErr.Code != -32000 {
		t.Errorf("Code = %d, want -32000", rpcErr.Code)
	}
	if !strings.Contains(rpcErr.Data.(string), "unknown tool") {
		t.Errorf("Data = %v, want unknown tool", rpcErr.Data)
	}
}

func TestHandleImageLoad(t *testing.T) {
	s := New()
	path := writePNG(t, "scene.png", testscene.Image(testscene.Centered))

	content, rpcErr := callTool(t, s, "image_load", map[string]interface{}{"path": path})
	if rpcErr != nil {
		t.Fatalf("image_load failed: %v", rpcErr.Data)
	}
	var info struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	textResult(t, content, &info)
	if info.Width != testscene.Width || info.Height != testscene.Height {
		t.Errorf("size = %dx%d, want %dx%d", info.Width, info.Height, testscene.Width, testscene.Height)
	}
	if info.Format != "png" {
		t.Errorf("format = %q, want png", info.Format)
	}
	if s.cache.Len() != 1 {
		t.Errorf("cache holds %d images, want 1", s.cache.Len())
	}
}

func TestHandleImageLoad_Errors(t *testing.T) {
	s := New()
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing path", map[string]interface{}{}},
		{"missing file", map[string]interface{}{"path": filepath.Join(t.TempDir(), "absent.png")}},
		{"wrong type", map[string]interface{}{"path": 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, rpcErr := callTool(t, s, "image_load", tt.args); rpcErr == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestHandleCameraInfo(t *testing.T) {
	t.Run("server calibration", func(t *testing.T) {
		s := New(WithCamera(testscene.Camera()))
		content, rpcErr := callTool(t, s, "camera_info", nil)
		if rpcErr != nil {
			t.Fatalf("camera_info failed: %v", rpcErr.Data)
		}
		var info CameraInfo
		textResult(t, content, &info)
		if info.Fx != testscene.Focal || info.Cx != testscene.Width/2 || info.Cy != testscene.Height/2 {
			t.Errorf("intrinsics = %+v", info)
		}
		if info.Matrix[2][2] != 1 || info.Matrix[0][0] != testscene.Focal {
			t.Errorf("matrix = %v", info.Matrix)
		}
		if info.Width != testscene.Width {
			t.Errorf("width = %d, want %d", info.Width, testscene.Width)
		}
	})

	t.Run("calibration argument", func(t *testing.T) {
		s := New()
		content, rpcErr := callTool(t, s, "camera_info", map[string]interface{}{"calibration": writeCalibration(t)})
		if rpcErr != nil {
			t.Fatalf("camera_info failed: %v", rpcErr.Data)
		}
		var info CameraInfo
		textResult(t, content, &info)
		if info.Fy != 700 || info.Height != 480 {
			t.Errorf("info = %+v", info)
		}
	})

	t.Run("no calibration", func(t *testing.T) {
		s := New()
		_, rpcErr := callTool(t, s, "camera_info", nil)
		if rpcErr == nil {
			t.Fatal("expected an error without a calibration")
		}
		if !strings.Contains(rpcErr.Data.(string), "no camera calibration") {
			t.Errorf("Data = %v", rpcErr.Data)
		}
	})
}

func TestHandleMarkerDetect(t *testing.T) {
	s := New(WithCamera(testscene.Camera()))
	path := writePNG(t, "scene.png", testscene.Image(testscene.Centered))

	content, rpcErr := callTool(t, s, "marker_detect", map[string]interface{}{"path": path})
	if rpcErr != nil {
		t.Fatalf("marker_detect failed: %v", rpcErr.Data)
	}
	var got results.Image
	textResult(t, content, &got)

	if got.Path != path {
		t.Errorf("path = %q, want %q", got.Path, path)
	}
	if len(got.Markers) != 1 {
		t.Fatalf("got %d markers, want 1", len(got.Markers))
	}
	m := got.Markers[0]
	if m.ID != testscene.Centered.ID {
		t.Errorf("id = %d, want %d", m.ID, testscene.Centered.ID)
	}
	if math.Abs(m.Centroid[0]-319.5) > 0.01 || math.Abs(m.Centroid[1]-239.5) > 0.01 {
		t.Errorf("centroid = %v, want [319.5 239.5]", m.Centroid)
	}
	if math.Abs(m.Tvec[2]-testscene.Depth) > 5 {
		t.Errorf("tvec = %v, want z near %v", m.Tvec, testscene.Depth)
	}
}

func TestHandleMarkerDetect_CalibrationArgument(t *testing.T) {
	s := New()
	path := writePNG(t, "scene.png", testscene.Image(testscene.Centered))

	content, rpcErr := callTool(t, s, "marker_detect", map[string]interface{}{
		"path":        path,
		"calibration": writeCalibration(t),
	})
	if rpcErr != nil {
		t.Fatalf("marker_detect failed: %v", rpcErr.Data)
	}
	var got results.Image
	textResult(t, content, &got)
	if len(got.Markers) != 1 {
		t.Errorf("got %d markers, want 1", len(got.Markers))
	}
}

func TestHandleMarkerDetect_NoMarkers(t *testing.T) {
	s := New(WithCamera(testscene.Camera()))
	path := writePNG(t, "blank.png", testscene.Image())

	content, rpcErr := callTool(t, s, "marker_detect", map[string]interface{}{"path": path})
	if rpcErr != nil {
		t.Fatalf("marker_detect failed: %v", rpcErr.Data)
	}
	var got results.Image
	textResult(t, content, &got)
	if got.Markers == nil || len(got.Markers) != 0 {
		t.Errorf("markers = %v, want an empty list", got.Markers)
	}
}

func TestHandleMarkerDetect_Errors(t *testing.T) {
	path := writePNG(t, "scene.png", testscene.Image(testscene.Centered))
	tests := []struct {
		name string
		srv  *Server
		args map[string]interface{}
	}{
		{"missing path", New(WithCamera(testscene.Camera())), map[string]interface{}{}},
		{"no calibration", New(), map[string]interface{}{"path": path}},
		{"bad calibration", New(), map[string]interface{}{"path": path, "calibration": filepath.Join(t.TempDir(), "absent.npz")}},
		{"missing image", New(WithCamera(testscene.Camera())), map[string]interface{}{"path": filepath.Join(t.TempDir(), "absent.png")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, rpcErr := callTool(t, tt.srv, "marker_detect", tt.args); rpcErr == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestHandleMarkerAnnotate(t *testing.T) {
	s := New(WithCamera(testscene.Camera()))
	scene := testscene.Image(testscene.Centered)
	path := writePNG(t, "scene.png", scene)

	for _, shape := range []string{"axis", "cube", "cylinder"} {
		t.Run(shape, func(t *testing.T) {
			content, rpcErr := callTool(t, s, "marker_annotate", map[string]interface{}{"path": path, "shape": shape})
			if rpcErr != nil {
				t.Fatalf("marker_annotate failed: %v", rpcErr.Data)
			}
			if len(content) != 2 {
				t.Fatalf("got %d content items, want image and text", len(content))
			}
			img := imageResult(t, content)
			if img.Bounds().Dx() != testscene.Width || img.Bounds().Dy() != testscene.Height {
				t.Errorf("annotated size = %v", img.Bounds())
			}
			changed := false
			b := img.Bounds()
			for y := b.Min.Y; y < b.Max.Y && !changed; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					r1, g1, b1, _ := img.At(x, y).RGBA()
					r2, g2, b2, _ := scene.At(x, y).RGBA()
					if r1 != r2 || g1 != g2 || b1 != b2 {
						changed = true
						break
					}
				}
			}
			if !changed {
				t.Error("annotated image is identical to the input")
			}

			var summary AnnotateResult
			textResult(t, content, &summary)
			if summary.Shape != shape || len(summary.Annotated) != 1 || summary.Annotated[0] != testscene.Centered.ID {
				t.Errorf("summary = %+v", summary)
			}
		})
	}

	// the cached source image must stay untouched
	cached, err := s.cache.Load(path)
	if err != nil {
		t.Fatalf("cache.Load failed: %v", err)
	}
	r, g, b, _ := cached.At(testscene.Width/2, testscene.Height/2-60).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("cached image was modified: %v", cached.At(testscene.Width/2, testscene.Height/2-60))
	}
}

func TestHandleMarkerAnnotate_OutputPath(t *testing.T) {
	s := New(WithCamera(testscene.Camera()))
	path := writePNG(t, "scene.png", testscene.Image(testscene.Centered))
	out := filepath.Join(t.TempDir(), "nested", "axis.jpg")

	content, rpcErr := callTool(t, s, "marker_annotate", map[string]interface{}{
		"path":        path,
		"shape":       "axis",
		"marker_id":   testscene.Centered.ID,
		"output_path": out,
	})
	if rpcErr != nil {
		t.Fatalf("marker_annotate failed: %v", rpcErr.Data)
	}
	if len(content) != 1 {
		t.Errorf("got %d content items, want text only", len(content))
	}
	var summary AnnotateResult
	textResult(t, content, &summary)
	if summary.OutputPath != out {
		t.Errorf("output_path = %q, want %q", summary.OutputPath, out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestHandleMarkerAnnotate_Errors(t *testing.T) {
	s := New(WithCamera(testscene.Camera()))
	path := writePNG(t, "scene.png", testscene.Image(testscene.Centered))

	tests := []struct {
		name    string
		args    map[string]interface{}
		wantMsg string
	}{
		{"unknown shape", map[string]interface{}{"path": path, "shape": "sphere"}, "sphere"},
		{"marker not found", map[string]interface{}{"path": path, "shape": "cube", "marker_id": 3}, "not found"},
		{"missing path", map[string]interface{}{"shape": "axis"}, "path is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rpcErr := callTool(t, s, "marker_annotate", tt.args)
			if rpcErr == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(rpcErr.Data.(string), tt.wantMsg) {
				t.Errorf("Data = %v, want it to mention %q", rpcErr.Data, tt.wantMsg)
			}
		})
	}
}

func TestHandleMarkerRender(t *testing.T) {
	s := New()

	content, rpcErr := callTool(t, s, "marker_render", map[string]interface{}{"id": 7})
	if rpcErr != nil {
		t.Fatalf("marker_render failed: %v", rpcErr.Data)
	}
	img := imageResult(t, content)
	// 5 data cells, a border on each side and a one cell quiet zone, 20 px each
	if img.Bounds().Dx() != 180 || img.Bounds().Dy() != 180 {
		t.Errorf("rendered size = %v, want 180x180", img.Bounds())
	}
	if c := color.GrayModel.Convert(img.At(5, 5)).(color.Gray); c.Y != 0xff {
		t.Errorf("quiet zone pixel = %v, want white", c)
	}
	if c := color.GrayModel.Convert(img.At(25, 25)).(color.Gray); c.Y != 0 {
		t.Errorf("border pixel = %v, want black", c)
	}

	var summary RenderResult
	textResult(t, content, &summary)
	if summary.ID != 7 || summary.Dictionary != s.dict.Name || summary.Width != 180 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestHandleMarkerRender_Options(t *testing.T) {
	s := New()
	out := filepath.Join(t.TempDir(), "marker7.png")

	content, rpcErr := callTool(t, s, "marker_render", map[string]interface{}{
		"id":          7,
		"cell_px":     10,
		"quiet":       0,
		"output_path": out,
	})
	if rpcErr != nil {
		t.Fatalf("marker_render failed: %v", rpcErr.Data)
	}
	var summary RenderResult
	textResult(t, content, &summary)
	if summary.Width != 70 || summary.OutputPath != out {
		t.Errorf("summary = %+v, want 70 px wide at %s", summary, out)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if cfg.Width != 70 {
		t.Errorf("written width = %d, want 70", cfg.Width)
	}
}

func TestHandleMarkerRender_Errors(t *testing.T) {
	s := New()
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"unknown id", map[string]interface{}{"id": 250}},
		{"negative id", map[string]interface{}{"id": -1}},
		{"negative cell size", map[string]interface{}{"id": 1, "cell_px": -4}},
		{"negative quiet zone", map[string]interface{}{"id": 1, "quiet": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, rpcErr := callTool(t, s, "marker_render", tt.args); rpcErr == nil {
				t.Error("expected an error")
			}
		})
	}
}
