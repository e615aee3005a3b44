package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/boxnow-labels/pkg/client"
	"github.com/Sternrassler/boxnow-labels/pkg/lock"
	"github.com/Sternrassler/boxnow-labels/pkg/logging"
	"github.com/Sternrassler/boxnow-labels/pkg/metrics"
	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
	"github.com/Sternrassler/boxnow-labels/pkg/workflow"
)

// session is everything a command needs after setup.
type session struct {
	cfg     *appConfig
	service *workflow.Service
	closers []func()
}

func (s *session) close() {
	if s.cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
			log.Warn().Err(err).Msg("Failed to write metrics textfile")
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// setup loads config, initialises logging and builds the workflow.
func setup(ctx context.Context, arg *args, logOut io.Writer) (*session, error) {
	cfg, err := loadConfig(arg)
	if err != nil {
		return nil, err
	}

	initLogger(cfg.Log, arg.version, logOut)

	c, err := client.New(cfg.clientConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s := &session{cfg: cfg}

	var guard lock.Guard
	if cfg.Lock.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Lock.RedisAddr,
			DB:   cfg.Lock.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Lock.RedisAddr, err)
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		guard = lock.NewRedisGuard(rdb, cfg.Lock.TTL, logging.NewLogger("session-lock"))
	}

	wcfg := workflow.DefaultConfig()
	wcfg.OutputRoot = cfg.Output.Root
	wcfg.Listing.Timeout = cfg.Listing.PageTimeout

	s.service = workflow.New(c, guard, wcfg)

	return s, nil
}

func runList(ctx context.Context, arg *args, out, errOut io.Writer) error {
	s, err := setup(ctx, arg, errOut)
	if err != nil {
		return err
	}
	defer s.close()

	token, err := s.service.Login(ctx, s.cfg.Auth.ClientID, s.cfg.Auth.ClientSecret)
	if err != nil {
		return report(errOut, err)
	}

	ids, err := s.service.Pending(ctx, token)
	if err != nil {
		return report(errOut, err)
	}

	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	log.Info().Int("parcels", len(ids)).Msg("Pending parcels listed")

	return nil
}

func runFetch(ctx context.Context, arg *args, fa *fetchArgs, out, errOut io.Writer) error {
	opts, err := parcel.ParsePrintOptions(fa.PaperSize, fa.PerPage)
	if err != nil {
		return report(errOut, err)
	}

	selected := make([]parcel.ID, 0, len(fa.Parcels))
	for _, p := range fa.Parcels {
		selected = append(selected, parcel.ID(p))
	}
	if !fa.All && len(selected) == 0 {
		return report(errOut, parcel.ErrEmptySelection)
	}

	s, err := setup(ctx, arg, errOut)
	if err != nil {
		return err
	}
	defer s.close()

	token, err := s.service.Login(ctx, s.cfg.Auth.ClientID, s.cfg.Auth.ClientSecret)
	if err != nil {
		return report(errOut, err)
	}

	if fa.All {
		doc, err := s.service.DownloadAll(ctx, token, opts)
		if err != nil {
			return report(errOut, err)
		}
		fmt.Fprintf(out, "All labels (%d parcels) downloaded to %s\n", doc.Parcels, doc.Path)
		return nil
	}

	listed, err := s.service.Pending(ctx, token)
	if err != nil {
		return report(errOut, err)
	}

	doc, err := s.service.DownloadSelected(ctx, token, listed, selected, opts)
	if err != nil {
		return report(errOut, err)
	}
	fmt.Fprintf(out, "Selected labels (%d parcels) downloaded to %s\n", doc.Parcels, doc.Path)

	return nil
}

// report prints the user-facing message and returns err for the exit code.
func report(errOut io.Writer, err error) error {
	fmt.Fprintln(errOut, UserMessage(err))
	return err
}

// UserMessage renders err for a person at the terminal.
func UserMessage(err error) string {
	if errors.Is(err, lock.ErrBusy) {
		return "Another label operation is already running for this account. Wait for it to finish."
	}

	var e *parcel.Error
	if !errors.As(err, &e) {
		return "Unexpected error: " + err.Error()
	}

	switch e.Kind {
	case parcel.KindAuthentication:
		return withStatus("Authentication failed. Check your client id and secret and make sure they contain no extra spaces.", e.StatusCode)
	case parcel.KindListing:
		if parcel.IsUnauthorized(e) {
			return "Your session has expired. Run the command again to log in."
		}
		return withStatus("Could not load pending parcels. Try again.", e.StatusCode)
	case parcel.KindUnsupportedFormat:
		if e.Fallback != "" {
			return fmt.Sprintf("The selected paper size (%s) is not supported by the API. Choose another format (most likely only %s works).", e.PaperSize, e.Fallback)
		}
		return fmt.Sprintf("The selected print options (%s) are not supported by the API: %s", e.PaperSize, e.Message)
	case parcel.KindDownload:
		if parcel.IsUnauthorized(e) {
			return "Your session has expired. Run the command again to log in."
		}
		return withStatus("Label download failed.", e.StatusCode)
	case parcel.KindIO:
		return "Could not save the label file: " + e.Error()
	case parcel.KindPrecondition:
		if errors.Is(e, parcel.ErrEmptySelection) {
			return "No parcels selected!"
		}
		return "Cannot continue: " + e.Message
	default:
		return e.Error()
	}
}

func withStatus(msg string, status int) string {
	if status == 0 {
		return msg
	}
	return fmt.Sprintf("%s (status %d)", msg, status)
}
