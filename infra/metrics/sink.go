package metrics

import coremetrics "github.com/careline/dispatch/core/metrics"

// Aliases so wiring code only imports the backend package.
type (
	Sink    = coremetrics.Sink
	Config  = coremetrics.Config
	NopSink = coremetrics.NopSink
)
