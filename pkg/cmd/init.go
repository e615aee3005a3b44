package cmd

import (
	"github.com/spf13/cobra"
)

type args struct {
	version    string
	LogLevel   string
	ConfigPath string
	LogPretty  bool

	ClientID     string
	ClientSecret string
}

type fetchArgs struct {
	All       bool
	Parcels   []string
	PaperSize string
	PerPage   string
}

// InitCommands initializes and returns the root command for the application.
func InitCommands(version string) *cobra.Command {
	args := &args{
		version: version,
	}

	cmd := &cobra.Command{
		Use:           "boxnow-labels",
		Short:         "BoxNow label fetcher",
		Long:          "boxnow-labels lists pending BoxNow parcels and downloads their shipping labels as one PDF.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&args.ConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&args.LogLevel, "loglevel", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&args.LogPretty, "logpretty", false, "human readable console logs, otherwise JSON")
	cmd.PersistentFlags().StringVar(&args.ClientID, "client-id", "", "BoxNow API client id")
	cmd.PersistentFlags().StringVar(&args.ClientSecret, "client-secret", "", "BoxNow API client secret")

	cmd.AddCommand(listCommand(args), fetchCommand(args))

	return cmd
}

func listCommand(arg *args) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending parcel ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), arg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func fetchCommand(arg *args) *cobra.Command {
	fa := &fetchArgs{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download labels for selected or all pending parcels",
		Example: `  boxnow-labels fetch --all --paper-size A6 --per-page 4
  boxnow-labels fetch --parcel 9120034 --parcel 9120035`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd.Context(), arg, fa, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&fa.All, "all", false, "fetch labels for every pending parcel")
	cmd.Flags().StringSliceVar(&fa.Parcels, "parcel", nil, "parcel id to fetch (repeatable, comma separated)")
	cmd.Flags().StringVar(&fa.PaperSize, "paper-size", "A4", "paper size (A4, A6)")
	cmd.Flags().StringVar(&fa.PerPage, "per-page", "1", "labels per sheet (1-4)")
	cmd.MarkFlagsMutuallyExclusive("all", "parcel")
	cmd.MarkFlagsOneRequired("all", "parcel")

	return cmd
}
