package server

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/lane-finder/internal/imaging"
	"github.com/ironsheep/lane-finder/internal/lane"
	"github.com/ironsheep/lane-finder/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "lane_detect", "lane_stream_frame").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithError(err).WithField("tool", params.Name).Warn("tool failed")
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "lane_roi":
		return s.handleLaneROI(args)

	case "lane_detect":
		return s.handleLaneDetect(args)
	case "lane_annotate":
		return s.handleLaneAnnotate(args)
	case "lane_edges":
		return s.handleLaneEdges(args)
	case "lane_segments":
		return s.handleLaneSegments(args)

	case "lane_stream_open":
		return s.handleStreamOpen(args)
	case "lane_stream_frame":
		return s.handleStreamFrame(args)
	case "lane_stream_close":
		return s.handleStreamClose(args)

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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments. Tools without required arguments
// accept a missing object.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func requirePath(path string) error {
	if path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// === Geometry ===

type laneROIArgs struct {
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Horizon *float64 `json:"horizon"`
}

type laneROIResult struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	HorizonRow int          `json:"horizon_row"`
	Polygon    lane.Polygon `json:"polygon"`
}

func (s *Server) handleLaneROI(args json.RawMessage) (interface{}, error) {
	var a laneROIArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Width <= 0 || a.Height <= 0 {
		return nil, fmt.Errorf("width and height must be positive, got %dx%d", a.Width, a.Height)
	}

	p := s.cfg.Lane
	if a.Horizon != nil {
		if *a.Horizon <= 0 || *a.Horizon >= 1 {
			return nil, fmt.Errorf("horizon %v must be in (0, 1)", *a.Horizon)
		}
		p.HorizonFraction = *a.Horizon
	}

	return &laneROIResult{
		Width:      a.Width,
		Height:     a.Height,
		HorizonRow: lane.HorizonRow(a.Height, p.HorizonFraction),
		Polygon:    p.ROI(a.Width, a.Height),
	}, nil
}

// === Single frame analysis ===

type framePathArgs struct {
	Path string `json:"path"`
}

type laneDetectResult struct {
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	HorizonRow int        `json:"horizon_row"`
	Lanes      lane.Lanes `json:"lanes"`
	State      lane.State `json:"state"`
}

func (s *Server) loadFrame(path string) (image.Image, error) {
	if err := requirePath(path); err != nil {
		return nil, err
	}
	return s.cache.Load(path)
}

func (s *Server) handleLaneDetect(args json.RawMessage) (interface{}, error) {
	var a framePathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadFrame(a.Path)
	if err != nil {
		return nil, err
	}

	segs, _, err := s.ann.Detect(img)
	if err != nil {
		return nil, err
	}
	est := s.ann.Estimator()
	h := img.Bounds().Dy()
	lanes, st := est.Estimate(segs, h, lane.InitialState)

	return &laneDetectResult{
		Width:      img.Bounds().Dx(),
		Height:     h,
		HorizonRow: est.HorizonRow(h),
		Lanes:      lanes,
		State:      st,
	}, nil
}

type laneAnnotateArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	MaxWidth   int    `json:"max_width"`
}

type laneAnnotateResult struct {
	Lanes      lane.Lanes            `json:"lanes"`
	OutputPath string                `json:"output_path,omitempty"`
	Image      *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleLaneAnnotate(args json.RawMessage) (interface{}, error) {
	var a laneAnnotateArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadFrame(a.Path)
	if err != nil {
		return nil, err
	}

	res, _, err := s.ann.Annotate(img, lane.InitialState)
	if err != nil {
		return nil, err
	}
	return s.annotatedResult(res, a.OutputPath, a.MaxWidth)
}

func (s *Server) annotatedResult(res *pipeline.Result, outputPath string, maxWidth int) (*laneAnnotateResult, error) {
	if outputPath != "" {
		if err := imaging.SaveFrame(res.Frame, outputPath); err != nil {
			return nil, err
		}
	}
	enc, err := imaging.EncodePNG(imaging.FitWidth(res.Frame, maxWidth))
	if err != nil {
		return nil, err
	}
	return &laneAnnotateResult{
		Lanes:      res.Lanes,
		OutputPath: outputPath,
		Image:      enc,
	}, nil
}

type laneEdgesArgs struct {
	Path     string `json:"path"`
	Stage    string `json:"stage"`
	MaxWidth int    `json:"max_width"`
}

type laneEdgesResult struct {
	Stage      string                `json:"stage"`
	EdgePixels int                   `json:"edge_pixels"`
	Image      *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleLaneEdges(args json.RawMessage) (interface{}, error) {
	var a laneEdgesArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Stage == "" {
		a.Stage = "masked"
	}
	img, err := s.loadFrame(a.Path)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	an, err := s.det.Analyze(img, s.ann.Estimator().ROI(b.Dx(), b.Dy()))
	if err != nil {
		return nil, err
	}

	var g *image.Gray
	switch a.Stage {
	case "gray":
		g = an.Gray
	case "edges":
		g = an.Edges
	case "masked":
		g = an.Masked
	default:
		return nil, fmt.Errorf("unknown stage %q (want gray, edges or masked)", a.Stage)
	}

	enc, err := imaging.EncodePNG(imaging.FitWidth(imaging.GrayToRGBA(g), a.MaxWidth))
	if err != nil {
		return nil, err
	}

	res := &laneEdgesResult{Stage: a.Stage, Image: enc}
	if a.Stage != "gray" {
		res.EdgePixels = countNonZero(g)
	}
	return res, nil
}

func countNonZero(g *image.Gray) int {
	n := 0
	for _, v := range g.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Segment classes reported by lane_segments.
const (
	classLeft       = "left"
	classRight      = "right"
	classHorizontal = "horizontal"
	classVertical   = "vertical"
)

type segmentInfo struct {
	lane.Segment
	Slope *float64 `json:"slope,omitempty"`
	Class string   `json:"class"`
}

type laneSegmentsResult struct {
	Segments []segmentInfo      `json:"segments"`
	Stats    lane.ClassifyStats `json:"stats"`
}

func (s *Server) handleLaneSegments(args json.RawMessage) (interface{}, error) {
	var a framePathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadFrame(a.Path)
	if err != nil {
		return nil, err
	}

	segs, _, err := s.ann.Detect(img)
	if err != nil {
		return nil, err
	}
	p := s.ann.Estimator().Params()
	_, _, stats := lane.Classify(segs, p)

	infos := make([]segmentInfo, 0, len(segs))
	for _, seg := range segs {
		infos = append(infos, classifySegment(seg, p))
	}
	return &laneSegmentsResult{Segments: infos, Stats: stats}, nil
}

func classifySegment(seg lane.Segment, p lane.Params) segmentInfo {
	info := segmentInfo{Segment: seg}
	slope, ok := seg.Slope()
	if !ok {
		info.Class = classVertical
		return info
	}
	info.Slope = &slope
	if slope <= p.SlopeThreshold {
		info.Class = classHorizontal
		return info
	}
	side := seg.Orientation()
	if p.Mirror {
		side = side.Opposite()
	}
	if side == lane.Left {
		info.Class = classLeft
	} else {
		info.Class = classRight
	}
	return info
}

// === Streams ===

type streamOpenResult struct {
	StreamID string `json:"stream_id"`
}

func (s *Server) handleStreamOpen(args json.RawMessage) (interface{}, error) {
	var a struct{}
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return &streamOpenResult{StreamID: s.openStream()}, nil
}

type streamFrameArgs struct {
	StreamID   string `json:"stream_id"`
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
}

type streamFrameResult struct {
	StreamID   string     `json:"stream_id"`
	Frame      int        `json:"frame"`
	Lanes      lane.Lanes `json:"lanes"`
	State      lane.State `json:"state"`
	OutputPath string     `json:"output_path,omitempty"`
}

func (s *Server) handleStreamFrame(args json.RawMessage) (interface{}, error) {
	var a streamFrameArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	st, err := s.lookupStream(a.StreamID)
	if err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	// Stream frames are seen once; keep them out of the cache.
	img, err := imaging.LoadFrame(a.Path)
	if err != nil {
		return nil, err
	}

	res, idx, state, err := st.advance(s.ann, img)
	if err != nil {
		return nil, err
	}
	if a.OutputPath != "" {
		if err := imaging.SaveFrame(res.Frame, a.OutputPath); err != nil {
			return nil, err
		}
	}

	return &streamFrameResult{
		StreamID:   a.StreamID,
		Frame:      idx,
		Lanes:      res.Lanes,
		State:      state,
		OutputPath: a.OutputPath,
	}, nil
}

type streamIDArgs struct {
	StreamID string `json:"stream_id"`
}

type streamCloseResult struct {
	StreamID string `json:"stream_id"`
	Frames   int    `json:"frames"`
}

func (s *Server) handleStreamClose(args json.RawMessage) (interface{}, error) {
	var a streamIDArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	frames, err := s.closeStream(a.StreamID)
	if err != nil {
		return nil, err
	}
	return &streamCloseResult{StreamID: a.StreamID, Frames: frames}, nil
}
