package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"lane_roi",
		"lane_detect",
		"lane_annotate",
		"lane_edges",
		"lane_segments",
		"lane_stream_open",
		"lane_stream_frame",
		"lane_stream_close",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema missing 'properties' field")
			}

			// Every required argument must be described.
			required, _ := tool.InputSchema["required"].([]string)
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required argument %s has no property", r)
				}
			}
		})
	}
}

func TestToolDefinitions_RequiredPath(t *testing.T) {
	toolsRequiringPath := map[string]bool{
		"lane_detect":       true,
		"lane_annotate":     true,
		"lane_edges":        true,
		"lane_segments":     true,
		"lane_stream_frame": true,
	}

	for _, tool := range GetToolDefinitions() {
		required, _ := tool.InputSchema["required"].([]string)
		hasPath := false
		for _, r := range required {
			if r == "path" {
				hasPath = true
			}
		}
		if hasPath != toolsRequiringPath[tool.Name] {
			t.Errorf("%s: requires path = %v, want %v", tool.Name, hasPath, toolsRequiringPath[tool.Name])
		}
	}
}

func TestToolDefinitions_EdgeStages(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		if tool.Name != "lane_edges" {
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})
		stage := props["stage"].(map[string]interface{})
		enum := stage["enum"].([]string)
		if len(enum) != 3 {
			t.Errorf("stage enum: got %v", enum)
		}
		if stage["default"] != "masked" {
			t.Errorf("stage default: got %v", stage["default"])
		}
		return
	}
	t.Fatal("lane_edges not defined")
}
