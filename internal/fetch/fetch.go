// Package fetch downloads raw ratings datasets over HTTP so that a
// preparation run can start from a remote source instead of a local
// file.
package fetch

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// MetricsSink receives download counters. Implemented by
// metrics.Wrapper; a nil sink disables reporting.
type MetricsSink interface {
	DatasetFetchInc()
	FetchFailureInc()
}

// Fetcher downloads datasets via a shared resty client.
type Fetcher struct {
	rest *resty.Client
}

func New(timeout time.Duration) *Fetcher {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(60 * time.Second) // default fallback
	}
	return &Fetcher{rest: r}
}

// Download fetches url into dest, overwriting any existing file.
func (f *Fetcher) Download(url, dest string) error {
	return f.DownloadWithMetrics(url, dest, nil)
}

// DownloadWithMetrics is Download with a metrics sink attached. On a
// non-200 response the partially written destination is removed.
func (f *Fetcher) DownloadWithMetrics(url, dest string, sink MetricsSink) error {
	if sink != nil {
		sink.DatasetFetchInc()
	}

	resp, err := f.rest.R().
		SetOutput(dest).
		Get(url)
	if err != nil {
		if sink != nil {
			sink.FetchFailureInc()
		}
		return fmt.Errorf("fetch %s: %w", url, err)
	}

	if resp.StatusCode() != http.StatusOK {
		os.Remove(dest)
		if sink != nil {
			sink.FetchFailureInc()
		}
		return fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode())
	}

	log.Info().
		Str("url", url).
		Str("dest", dest).
		Msg("dataset downloaded")

	return nil
}
