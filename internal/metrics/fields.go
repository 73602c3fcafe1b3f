package metrics

// Attribute keys shared by the otel instruments.
const (
	AttrProvider = "provider"
	AttrMethod   = "method"
	AttrPath     = "path"
	AttrStatus   = "status"
	AttrDataset  = "dataset"
	AttrOutcome  = "outcome"
)
