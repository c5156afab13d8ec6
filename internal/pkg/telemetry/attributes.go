package telemetry

// Span attribute keys shared by adapters.
const (
	AttrService = "roomradar.upstream.service"
	AttrOp      = "roomradar.upstream.op"
)
