package server

// Tool describes one callable tool in the tools/list response.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Tool names.
const (
	ToolDatasetSplit       = "dataset_split"
	ToolDatasetInvestigate = "dataset_investigate"
	ToolLesionPredict      = "lesion_predict"
)

// GetToolDefinitions returns the tools the server exposes.
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        ToolDatasetSplit,
			Description: "List the configured images directory and split it into training and validation indices with the configured ratio and seed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"include_paths": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the image path behind every index. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        ToolDatasetInvestigate,
			Description: "Load the training partition, report the shape and class IDs of the first image and its mask, and describe a seeded sample of further images.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"out_dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory for the rendered mask panels",
					},
				},
			},
		},
		{
			Name:        ToolLesionPredict,
			Description: "Detect the lesion in one image and return its bounding box, score and a PNG overlay of the mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"weights": map[string]interface{}{
						"type":        "string",
						"description": "Optional weight file. Default is the newest checkpoint",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to also write the overlay to",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Embed the overlay as base64 PNG. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
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
