package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and color model.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "camera_info",
			Description: "Report the intrinsic matrix, distortion coefficients and image size of a camera calibration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"calibration": pathProperty("Path to a .npz (mtx, dist) or .json calibration. Defaults to the server's calibration"),
				},
			},
		},
		{
			Name:        "marker_detect",
			Description: "Detect fiducial markers in an image and estimate each marker's pose. Returns id, centroid (pixels), rvec and tvec per marker in detection order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty("Absolute path to the image file"),
					"calibration": pathProperty("Path to a camera calibration. Defaults to the server's calibration"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "marker_annotate",
			Description: "Draw a pose-anchored axis, cube or cylinder wireframe on detected markers. Returns the annotated image as base64 PNG unless output_path is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"shape": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"axis", "cube", "cylinder"},
						"description": "Overlay to draw",
					},
					"marker_id": map[string]interface{}{
						"type":        "integer",
						"description": "Only annotate this marker. Defaults to every detected marker",
					},
					"calibration": pathProperty("Path to a camera calibration. Defaults to the server's calibration"),
					"output_path": pathProperty("Write the annotated image here instead of returning it"),
				},
				"required": []string{"path", "shape"},
			},
		},
		{
			Name:        "marker_render",
			Description: "Render a printable marker from the detector's dictionary. Returns base64 PNG unless output_path is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Marker ID",
					},
					"cell_px": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels per cell (default: 20)",
						"default":     20,
					},
					"quiet": map[string]interface{}{
						"type":        "integer",
						"description": "White margin in cells (default: 1)",
						"default":     1,
					},
					"output_path": pathProperty("Write the marker image here instead of returning it"),
				},
				"required": []string{"id"},
			},
		},
	}
}
