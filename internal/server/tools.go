package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the frame image",
	}
}

func outputPathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Optional path to also save the annotated frame to (.png or .jpg)",
	}
}

func maxWidthProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Optional width to scale the returned image down to. 0 keeps the original size",
		"default":     0,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Geometry
		{
			Name:        "lane_roi",
			Description: "Compute the trapezoidal road region searched for lane lines in a frame of the given size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Frame width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Frame height in pixels",
					},
					"horizon": map[string]interface{}{
						"type":        "number",
						"description": "Horizon as a fraction of the height, in (0, 1). Defaults to the configured value",
					},
				},
				"required": []string{"width", "height"},
			},
		},

		// Single frame analysis
		{
			Name:        "lane_detect",
			Description: "Estimate the left and right lane lines of a single frame, starting from an empty history.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "lane_annotate",
			Description: "Draw the estimated lane lines onto a frame and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty(),
					"output_path": outputPathProperty(),
					"max_width":   maxWidthProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "lane_edges",
			Description: "Return an intermediate stage of the detector (gray, edges or masked edges) as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"stage": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"gray", "edges", "masked"},
						"description": "Stage to return. Default masked",
						"default":     "masked",
					},
					"max_width": maxWidthProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "lane_segments",
			Description: "List the raw Hough segments found in the road region with their slope and the side they were assigned to.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Streams
		{
			Name:        "lane_stream_open",
			Description: "Open a frame stream. Frames sent to the stream reuse the previous frame's lane when a side is not found.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "lane_stream_frame",
			Description: "Estimate the lanes of the next frame of a stream and update the stream's history.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"stream_id": map[string]interface{}{
						"type":        "string",
						"description": "Identifier returned by lane_stream_open",
					},
					"path":        pathProperty(),
					"output_path": outputPathProperty(),
				},
				"required": []string{"stream_id", "path"},
			},
		},
		{
			Name:        "lane_stream_close",
			Description: "Close a stream and release its history.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"stream_id": map[string]interface{}{
						"type":        "string",
						"description": "Identifier returned by lane_stream_open",
					},
				},
				"required": []string{"stream_id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
