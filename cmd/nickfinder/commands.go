package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/nickfinder/internal/api"
	"github.com/MikeSquared-Agency/nickfinder/internal/config"
	"github.com/MikeSquared-Agency/nickfinder/internal/events"
	"github.com/MikeSquared-Agency/nickfinder/internal/finder"
	"github.com/MikeSquared-Agency/nickfinder/internal/report"
	"github.com/MikeSquared-Agency/nickfinder/internal/slack"
)

// errFatal is returned in strict mode after a fatal condition was logged.
var errFatal = errors.New("run aborted")

type findOptions struct {
	directory string
	username  string
	output    string
	strict    bool
}

func newRootCmd(cfg config.Config) *cobra.Command {
	opts := findOptions{
		username: cfg.Username,
		output:   cfg.Output,
		strict:   cfg.Strict,
	}

	cmd := &cobra.Command{
		Use:   "nickfinder [file...]",
		Short: "List every nickname you have been given in a messaging export",
		Long: `nickfinder scans the message JSON files of a messaging data export for
"<someone> set your nickname to <nickname>." notices, repairs the export's
broken text encoding, and writes every nickname found with its timestamp.

Examples:
  # Scan every file in a conversation folder
  nickfinder -d inbox/sam_abc123 -u "Alice Smith"

  # Scan explicit files
  nickfinder inbox/sam_abc123/message_1.json inbox/sam_abc123/message_2.json

  # Write the result somewhere else
  nickfinder -d inbox/sam_abc123 -o nicknames.json

A file argument named exactly "serve" runs the serve command; pass it as
./serve to scan it.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, cfg, opts, args)
		},
	}
	// File arguments would collide with a "completion" subcommand.
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.StringVarP(&opts.directory, "directory", "d", "", "directory containing the message JSON files; file arguments are ignored when set")
	flags.StringVarP(&opts.username, "username", "u", opts.username, "your display name, used to skip your own messages and conversations without you")
	flags.StringVarP(&opts.output, "output", "o", opts.output, "result JSON file")
	flags.BoolVar(&opts.strict, "strict", opts.strict, "exit with status 1 when the run aborts")

	cmd.AddCommand(newServeCmd(cfg))
	return cmd
}

func runFind(cmd *cobra.Command, cfg config.Config, opts findOptions, files []string) error {
	if opts.directory == "" && len(files) == 0 {
		return cmd.Help()
	}

	ctx := cmd.Context()
	logger := slog.Default()

	var finderOpts []finder.Option
	var publisher *events.Client
	if cfg.NatsURL != "" {
		client, err := events.NewClient(cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			logger.Warn("NATS unavailable, not publishing events", "url", cfg.NatsURL, "error", err)
		} else {
			defer client.Close()
			publisher = client
			finderOpts = append(finderOpts, finder.WithObserver(client))
			logger.Info("NATS connected", "url", cfg.NatsURL)
		}
	}

	f := finder.New(opts.username, logger, finderOpts...)

	var (
		res  *finder.Result
		err  error
		mode string
	)
	if opts.directory != "" {
		mode = "directory"
		res, err = f.FindInDirectory(ctx, opts.directory)
	} else {
		mode = "files"
		res, err = f.FindInFiles(ctx, files)
	}
	if errors.Is(err, finder.ErrInvalidDirectory) {
		logger.Error("invalid input directory, nothing written", "dir", opts.directory)
		if opts.strict {
			return errFatal
		}
		return nil
	}
	if err != nil {
		return err
	}

	summary := report.Summarize(res.Records)
	out := cmd.OutOrStdout()
	if err := summary.Print(out); err != nil {
		return fmt.Errorf("print summary: %w", err)
	}
	if err := report.Export(opts.output, res.Records); err != nil {
		return err
	}
	fmt.Fprintf(out, "Output written to %s\n", opts.output)

	if publisher != nil {
		if err := publisher.RunCompleted(res, mode, summary.Distinct()); err != nil {
			logger.Warn("failed to publish run event", "error", err)
		}
	}

	// Optional, a failed post does not fail the run.
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		poster := slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, logger)
		if _, err := poster.PostRunSummary(ctx, res, summary); err != nil {
			logger.Warn("failed to post run summary to slack", "error", err)
		}
	}
	return nil
}

func newServeCmd(cfg config.Config) *cobra.Command {
	port := cfg.Port
	input := cfg.Output

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a result file over HTTP",
		Long: `Serve a result file written by nickfinder as read-only JSON.

Endpoints:
  GET /health
  GET /api/v1/nicknames
  GET /api/v1/nicknames/summary
  GET /api/v1/nicknames/{nickname}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := report.Load(input)
			if err != nil {
				return err
			}
			slog.Info("result file loaded", "path", input, "records", doc.Length)
			return api.NewServer(port, doc).Start(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", port, "port to listen on")
	cmd.Flags().StringVarP(&input, "output", "o", input, "result JSON file to serve")
	return cmd
}
