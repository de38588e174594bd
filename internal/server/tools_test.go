package server

import (
	"context"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	want := map[string]bool{
		ToolDatasetSplit:       false,
		ToolDatasetInvestigate: false,
		ToolLesionPredict:      false,
	}
	for _, tool := range tools {
		if _, ok := want[tool.Name]; !ok {
			t.Errorf("unexpected tool %q", tool.Name)
			continue
		}
		want[tool.Name] = true

		if tool.Description == "" {
			t.Errorf("tool %s has no description", tool.Name)
		}
		if tool.InputSchema["type"] != "object" {
			t.Errorf("tool %s: schema type %v", tool.Name, tool.InputSchema["type"])
		}
		if _, ok := tool.InputSchema["properties"].(map[string]interface{}); !ok {
			t.Errorf("tool %s: properties should be a map", tool.Name)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("missing tool %s", name)
		}
	}
}

func TestToolDefinitions_PredictRequiresPath(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		if tool.Name != ToolLesionPredict {
			continue
		}
		req, ok := tool.InputSchema["required"].([]string)
		if !ok || len(req) != 1 || req[0] != "path" {
			t.Errorf("required: got %v, want [path]", tool.InputSchema["required"])
		}
		props := tool.InputSchema["properties"].(map[string]interface{})
		for _, p := range []string{"path", "weights", "output", "include_image"} {
			if _, ok := props[p]; !ok {
				t.Errorf("missing property %s", p)
			}
		}
		return
	}
	t.Fatal("lesion_predict not defined")
}

func TestHandleToolsList(t *testing.T) {
	s := newServer(t, nil)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
	result := resp.Result.(map[string]interface{})
	tools, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(tools) != 3 {
		t.Errorf("expected 3 tools, got %d", len(tools))
	}
}
