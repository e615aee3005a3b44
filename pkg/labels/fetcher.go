// Package labels turns a parcel selection into a label document on disk.
package labels

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/boxnow-labels/pkg/logging"
	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
	"github.com/Sternrassler/boxnow-labels/pkg/staging"
)

var (
	documentsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boxnow_label_documents_total",
		Help: "Label documents requested by outcome kind",
	}, []string{"outcome"})

	documentBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "boxnow_label_document_bytes",
		Help:    "Size of written label documents",
		Buckets: prometheus.ExponentialBuckets(16<<10, 4, 8),
	})
)

// Downloader requests one merged label document for a set of parcels.
type Downloader interface {
	RequestLabels(ctx context.Context, token parcel.AccessToken, ids []parcel.ID, opts parcel.PrintOptions) ([]byte, error)
}

// Document is a label document that has been written to disk.
type Document struct {
	Path    string
	Data    []byte
	Parcels int
	Options parcel.PrintOptions
}

// Fetcher downloads label documents and stores them.
type Fetcher struct {
	downloader Downloader
	logger     zerolog.Logger
}

// NewFetcher creates a new fetcher.
func NewFetcher(d Downloader) *Fetcher {
	return &Fetcher{
		downloader: d,
		logger:     logging.NewLogger("label-fetcher"),
	}
}

// FetchLabels requests labels for ids and writes them to dir/filename.
// Nothing is written unless the whole document was received.
func (f *Fetcher) FetchLabels(ctx context.Context, ids []parcel.ID, token parcel.AccessToken, opts parcel.PrintOptions, dir, filename string) (*Document, error) {
	if len(ids) == 0 {
		documentsWrittenTotal.WithLabelValues(string(parcel.KindPrecondition)).Inc()
		return nil, parcel.ErrEmptySelection
	}

	start := time.Now()

	data, err := f.downloader.RequestLabels(ctx, token, ids, opts)
	if err != nil {
		kind := parcel.KindOf(err)
		if kind == "" {
			kind = parcel.KindDownload
			err = &parcel.Error{Kind: kind, Message: "request labels", Err: err}
		}
		documentsWrittenTotal.WithLabelValues(string(kind)).Inc()

		f.logger.Warn().
			Err(err).
			Str("kind", string(kind)).
			Int("parcels", len(ids)).
			Str("paper_size", string(opts.PaperSize)).
			Int("per_page", opts.PerPage).
			Msg("Label request failed")
		return nil, err
	}

	path, err := staging.WriteFileAtomic(dir, filename, data)
	if err != nil {
		documentsWrittenTotal.WithLabelValues(string(parcel.KindIO)).Inc()
		f.logger.Error().Err(err).Str("dir", dir).Msg("Writing label document failed")
		return nil, err
	}

	documentsWrittenTotal.WithLabelValues("ok").Inc()
	documentBytes.Observe(float64(len(data)))

	f.logger.Info().
		Str("path", path).
		Int("parcels", len(ids)).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Label document written")

	return &Document{
		Path:    path,
		Data:    data,
		Parcels: len(ids),
		Options: opts,
	}, nil
}
