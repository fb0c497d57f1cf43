package stream

import (
	"context"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/nowplaying/pkg/stream/common"
)

// ProbeFunc is one fallible extraction strategy. A (nil, nil) return means
// the strategy declined; an error means it tried and failed. Neither stops
// the cascade.
type ProbeFunc func(ctx context.Context, streamURL string) (*common.NowPlaying, error)

// Strategy pairs a probe function with a name for logging.
type Strategy struct {
	Name  string
	Probe ProbeFunc
}

// Extractor runs strategies strictly in order, short-circuiting at the
// first one that produces a title or station name. Strategy failures are
// caught and logged at the strategy boundary; total exhaustion yields the
// explicit "no metadata available" value, never an error.
type Extractor struct {
	strategies []Strategy
}

// NewExtractor creates the standard four-strategy cascade: direct
// transport probe, status-JSON endpoints, header probe, raw stream
// re-read.
func NewExtractor() *Extractor {
	return NewExtractorWithConfig(DefaultConfig())
}

// NewExtractorWithConfig creates the standard cascade with explicit
// timeouts and limits threaded through every strategy. Zero fields fall
// back to defaults.
func NewExtractorWithConfig(cfg Config) *Extractor {
	cfg = cfg.withDefaults()
	client := newProbeClient(cfg)
	prober := newProber(client, cfg)

	return NewExtractorWithStrategies(
		Strategy{Name: "direct", Probe: prober.Probe},
		Strategy{Name: "status-json", Probe: func(ctx context.Context, url string) (*common.NowPlaying, error) {
			return ProbeStatusEndpointsWithConfig(ctx, client, url, cfg)
		}},
		Strategy{Name: "headers", Probe: func(ctx context.Context, url string) (*common.NowPlaying, error) {
			return ProbeHeadersWithConfig(ctx, client, url, cfg)
		}},
		Strategy{Name: "stream-data", Probe: func(ctx context.Context, url string) (*common.NowPlaying, error) {
			return ProbeStreamDataWithConfig(ctx, client, url, cfg)
		}},
	)
}

// NewExtractorWithStrategies creates a cascade over a custom strategy
// list, preserving the given order.
func NewExtractorWithStrategies(strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies}
}

// Extract probes streamURL through the cascade. The only caller-visible
// error is a structurally invalid input URL, surfaced before any strategy
// runs. Every result is constructed fresh; the extractor holds no state
// between calls.
func (e *Extractor) Extract(ctx context.Context, streamURL string) (*common.NowPlaying, error) {
	if _, err := common.ValidateURL(streamURL); err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "extractor",
		"url":       streamURL,
	})

	for _, strategy := range e.strategies {
		result, err := strategy.Probe(ctx, streamURL)
		if err != nil {
			logger.Warn("extraction strategy failed", logging.Fields{
				"strategy": strategy.Name,
				"error":    err.Error(),
			})
			continue
		}
		if result.HasMetadata() {
			logger.Debug("extraction strategy succeeded", logging.Fields{
				"strategy": strategy.Name,
				"source":   string(result.Source),
			})
			return result, nil
		}
	}

	logger.Debug("all extraction strategies exhausted")
	return common.NoMetadata(streamURL), nil
}
