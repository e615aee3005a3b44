package pagination

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/boxnow-labels/pkg/logging"
	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
)

var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boxnow_listing_pages_total",
		Help: "Total parcel listing pages fetched",
	})

	listingTruncatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boxnow_listing_truncated_total",
		Help: "Listings that ended early because the provider omitted a cursor",
	})
)

// Config holds lister configuration.
type Config struct {
	// Timeout per page fetch
	Timeout time.Duration
}

// DefaultConfig returns the default lister configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 15 * time.Second,
	}
}

// PageFetcher fetches a single listing page. An empty pageToken means the
// first page.
type PageFetcher interface {
	FetchParcelPage(ctx context.Context, token parcel.AccessToken, pageToken string) (*parcel.Page, error)
}

// Lister collects every pending parcel id.
type Lister struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewLister creates a new lister.
func NewLister(fetcher PageFetcher, config Config) *Lister {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Lister{
		fetcher: fetcher,
		config:  config,
		logger:  logging.NewLogger("parcel-lister"),
	}
}

// ListPendingParcels returns all pending parcel ids in provider order.
// Either the whole list is returned or an error; never a partial list.
func (l *Lister) ListPendingParcels(ctx context.Context, token parcel.AccessToken) ([]parcel.ID, error) {
	start := time.Now()

	first, err := l.fetchPage(ctx, token, "")
	if err != nil {
		return nil, err
	}

	totalPages := parcel.TotalPages(first.Count)

	l.logger.Info().
		Int("count", first.Count).
		Int("total_pages", totalPages).
		Msg("Starting parcel listing")

	if first.Count <= 0 {
		return []parcel.ID{}, nil
	}

	// count is provider-supplied; the slice grows with what pages deliver.
	ids := make([]parcel.ID, 0, len(first.IDs))
	ids = append(ids, first.IDs...)
	next := first.Next

	for page := 1; page < totalPages; page++ {
		if next == "" {
			listingTruncatedTotal.Inc()
			l.logger.Warn().
				Int("page", page).
				Int("total_pages", totalPages).
				Int("collected", len(ids)).
				Int("count", first.Count).
				Msg("Cursor missing before last page, treating listing as complete")
			break
		}

		p, err := l.fetchPage(ctx, token, next)
		if err != nil {
			l.logger.Warn().
				Err(err).
				Int("page", page).
				Msg("Page fetch failed, discarding listing")
			return nil, err
		}

		ids = append(ids, p.IDs...)
		next = p.Next
	}

	l.logger.Info().
		Int("parcels", len(ids)).
		Dur("duration", time.Since(start)).
		Msg("Listing complete")

	return ids, nil
}

func (l *Lister) fetchPage(ctx context.Context, token parcel.AccessToken, pageToken string) (*parcel.Page, error) {
	pageCtx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	page, err := l.fetcher.FetchParcelPage(pageCtx, token, pageToken)
	if err != nil {
		if parcel.KindOf(err) == "" {
			err = &parcel.Error{Kind: parcel.KindListing, Message: "fetch page", Err: err}
		}
		return nil, err
	}

	pagesFetchedTotal.Inc()
	return page, nil
}
