package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apolanco3225/Melanoma-Detection/internal/app"
	"github.com/apolanco3225/Melanoma-Detection/internal/model"
	"github.com/apolanco3225/Melanoma-Detection/internal/render"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "lesion_predict").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case ToolDatasetSplit:
		return s.handleDatasetSplit(args)
	case ToolDatasetInvestigate:
		return s.handleDatasetInvestigate(ctx, args)
	case ToolLesionPredict:
		return s.handleLesionPredict(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes args into v, treating absent arguments as {}.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return json.Unmarshal(args, v)
}

// === Dataset Handlers ===

type datasetSplitArgs struct {
	IncludePaths bool `json:"include_paths"`
}

// SplitResult is the dataset_split response.
type SplitResult struct {
	Images     int      `json:"images"`
	Ratio      float64  `json:"ratio"`
	Seed       int64    `json:"seed"`
	Train      []int    `json:"train"`
	Validation []int    `json:"validation"`
	Paths      []string `json:"paths,omitempty"`
}

func (s *Server) handleDatasetSplit(args json.RawMessage) (interface{}, error) {
	var a datasetSplitArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	paths, part, err := s.app.Partition()
	if err != nil {
		return nil, err
	}
	cfg := s.app.Config()
	res := &SplitResult{
		Images:     len(paths),
		Ratio:      cfg.Split.Ratio,
		Seed:       cfg.Split.Seed,
		Train:      part.Train,
		Validation: part.Validation,
	}
	if a.IncludePaths {
		res.Paths = paths
	}
	return res, nil
}

type datasetInvestigateArgs struct {
	OutDir string `json:"out_dir"`
}

func (s *Server) handleDatasetInvestigate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a datasetInvestigateArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.app.Investigate(ctx, a.OutDir)
}

// === Prediction Handlers ===

type lesionPredictArgs struct {
	Path         string `json:"path"`
	Weights      string `json:"weights"`
	Output       string `json:"output"`
	IncludeImage *bool  `json:"include_image"`
}

// Detection is one detected instance in a lesion_predict response.
type Detection struct {
	Class   string    `json:"class"`
	ClassID int32     `json:"class_id"`
	Score   float64   `json:"score"`
	ROI     model.Box `json:"roi"`
	Area    int       `json:"area"`
}

// PredictResult is the lesion_predict response.
type PredictResult struct {
	Path       string          `json:"path"`
	Weights    string          `json:"weights"`
	Detections []Detection     `json:"detections"`
	Output     string          `json:"output,omitempty"`
	Overlay    *render.Encoded `json:"overlay,omitempty"`
}

func (s *Server) handleLesionPredict(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a lesionPredictArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	pred, err := s.app.Predict(ctx, a.Path, a.Weights, a.Output)
	if err != nil {
		return nil, err
	}

	res := &PredictResult{
		Path:       a.Path,
		Weights:    pred.Weights,
		Detections: detections(s.app, pred),
		Output:     pred.Output,
	}
	if a.IncludeImage == nil || *a.IncludeImage {
		enc, err := render.EncodePNG(pred.Image)
		if err != nil {
			return nil, err
		}
		res.Overlay = enc
	}
	return res, nil
}

func detections(a *app.App, pred *app.Prediction) []Detection {
	r := pred.Result
	out := make([]Detection, 0, r.Len())
	for i := 0; i < r.Len(); i++ {
		area := 0
		if i < len(r.Masks.Planes) {
			for _, on := range r.Masks.Planes[i] {
				if on {
					area++
				}
			}
		}
		out = append(out, Detection{
			Class:   a.ClassName(r.ClassIDs[i]),
			ClassID: r.ClassIDs[i],
			Score:   r.Scores[i],
			ROI:     r.ROIs[i],
			Area:    area,
		})
	}
	return out
}
