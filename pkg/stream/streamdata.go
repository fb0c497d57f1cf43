package stream

import (
	"context"
	"net/http"

	"github.com/RyanBlaney/nowplaying/pkg/stream/common"
	"github.com/RyanBlaney/nowplaying/pkg/stream/icy"
)

// ProbeStreamData is the last-resort strategy: re-issue a body request
// with the ICY metadata header and decode one inline metadata block. It
// runs only after the header probe found no current-song field; a stream
// without icy-metaint declines here too.
func ProbeStreamData(ctx context.Context, client *http.Client, streamURL string) (*common.NowPlaying, error) {
	return ProbeStreamDataWithConfig(ctx, client, streamURL, DefaultConfig())
}

// ProbeStreamDataWithConfig is ProbeStreamData with explicit read bounds.
func ProbeStreamDataWithConfig(ctx context.Context, client *http.Client, streamURL string, cfg Config) (*common.NowPlaying, error) {
	result, err := icy.ProbeWithConfig(ctx, client, streamURL, nil, cfg.icyConfig())
	if err != nil || result == nil {
		return result, err
	}
	result.Source = common.SourceStream
	return result, nil
}
