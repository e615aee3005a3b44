// Package workflow wires the label pipeline into the two run modes a
// front end offers: labels for a selected subset of pending parcels and
// labels for all of them.
package workflow

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/boxnow-labels/pkg/labels"
	"github.com/Sternrassler/boxnow-labels/pkg/lock"
	"github.com/Sternrassler/boxnow-labels/pkg/logging"
	"github.com/Sternrassler/boxnow-labels/pkg/pagination"
	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
	"github.com/Sternrassler/boxnow-labels/pkg/staging"
)

// Provider is the BoxNow API surface the workflow needs.
type Provider interface {
	Authenticate(ctx context.Context, clientID, clientSecret string) (parcel.AccessToken, error)
	pagination.PageFetcher
	labels.Downloader
}

// Config holds workflow configuration.
type Config struct {
	// OutputRoot is where mode folders are created; empty means the
	// working directory.
	OutputRoot string

	// Listing configures the parcel lister.
	Listing pagination.Config
}

// DefaultConfig returns the default workflow configuration.
func DefaultConfig() Config {
	return Config{
		Listing: pagination.DefaultConfig(),
	}
}

// Service runs authentication, listing and label fetching. Operations for
// the same token are serialized through the guard.
type Service struct {
	provider Provider
	lister   *pagination.Lister
	fetcher  *labels.Fetcher
	guard    lock.Guard
	config   Config
	logger   zerolog.Logger
}

// New creates a service. A nil guard means an in-process guard.
func New(p Provider, guard lock.Guard, cfg Config) *Service {
	if guard == nil {
		guard = lock.NewMemoryGuard()
	}

	return &Service{
		provider: p,
		lister:   pagination.NewLister(p, cfg.Listing),
		fetcher:  labels.NewFetcher(p),
		guard:    guard,
		config:   cfg,
		logger:   logging.NewLogger("workflow"),
	}
}

// Login exchanges credentials for an access token.
func (s *Service) Login(ctx context.Context, clientID, clientSecret string) (parcel.AccessToken, error) {
	return s.provider.Authenticate(ctx, clientID, clientSecret)
}

// Pending lists every pending parcel id.
func (s *Service) Pending(ctx context.Context, token parcel.AccessToken) ([]parcel.ID, error) {
	release, err := s.guard.Acquire(ctx, token)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.lister.ListPendingParcels(ctx, token)
}

// DownloadSelected writes labels for selected, which must be drawn from
// listed, the most recent result of Pending.
func (s *Service) DownloadSelected(ctx context.Context, token parcel.AccessToken, listed, selected []parcel.ID, opts parcel.PrintOptions) (*labels.Document, error) {
	ids, err := parcel.Subset(listed, selected)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, parcel.ErrEmptySelection
	}

	release, err := s.guard.Acquire(ctx, token)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.fetch(ctx, parcel.ModeSelected, token, ids, opts)
}

// DownloadAll lists pending parcels and writes labels for all of them.
func (s *Service) DownloadAll(ctx context.Context, token parcel.AccessToken, opts parcel.PrintOptions) (*labels.Document, error) {
	release, err := s.guard.Acquire(ctx, token)
	if err != nil {
		return nil, err
	}
	defer release()

	ids, err := s.lister.ListPendingParcels(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, &parcel.Error{Kind: parcel.KindPrecondition, Message: "no pending parcels"}
	}

	return s.fetch(ctx, parcel.ModeBulk, token, ids, opts)
}

func (s *Service) fetch(ctx context.Context, mode parcel.Mode, token parcel.AccessToken, ids []parcel.ID, opts parcel.PrintOptions) (*labels.Document, error) {
	dir, err := s.ensureFolder(mode.Folder)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("mode", mode.Name).
		Int("parcels", len(ids)).
		Str("paper_size", string(opts.PaperSize)).
		Int("per_page", opts.PerPage).
		Msg("Fetching labels")

	doc, err := s.fetcher.FetchLabels(ctx, ids, token, opts, dir, mode.Filename)
	if err != nil {
		return nil, fmt.Errorf("%s labels: %w", mode.Name, err)
	}

	return doc, nil
}

func (s *Service) ensureFolder(name string) (string, error) {
	if s.config.OutputRoot == "" {
		return staging.EnsureFolder(name)
	}
	return staging.EnsureFolderIn(s.config.OutputRoot, name)
}
