package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/mmcdole/shutter/internal/adapter"
	"github.com/mmcdole/shutter/internal/imagecache"
	"github.com/mmcdole/shutter/internal/pagination"
	"github.com/mmcdole/shutter/internal/store"
	"github.com/mmcdole/shutter/internal/transport"
	"github.com/mmcdole/shutter/internal/tui"
	"github.com/mmcdole/shutter/internal/unsplash"
)

// Version is set at build time via -ldflags
var Version = "dev"

// options holds the command line switches that are not config keys
type options struct {
	showVersion  bool
	clearCache   bool
	clearHistory bool
	plain        bool
	rows         int
	term         string
}

func main() {
	opts, flags, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if opts.showVersion {
		fmt.Printf("shutter %s\n", Version)
		return
	}

	if err := run(opts, flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, *pflag.FlagSet, error) {
	opts := &options{}
	flags := pflag.NewFlagSet("shutter", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: shutter [flags] [search term]\n\nFlags:\n")
		flags.PrintDefaults()
	}

	flags.BoolVarP(&opts.showVersion, "version", "v", false, "print version")
	flags.BoolVar(&opts.clearCache, "clear-cache", false, "delete the on-disk image cache and exit")
	flags.BoolVar(&opts.clearHistory, "clear-history", false, "delete the search history and exit")
	flags.BoolVar(&opts.plain, "plain", false, "print results as text instead of starting the UI")
	flags.IntVar(&opts.rows, "rows", 30, "number of rows to print in plain mode")
	adapter.RegisterFlags(flags)

	if err := flags.Parse(args); err != nil {
		return nil, nil, err
	}
	opts.term = strings.TrimSpace(strings.Join(flags.Args(), " "))

	// Plain output when stdout is piped
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		opts.plain = true
	}
	return opts, flags, nil
}

func run(opts *options, flags *pflag.FlagSet) error {
	// Load configuration
	cfg, err := adapter.LoadConfig(flags)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	// A failed log file leaves a discarding logger in place
	logger, logCloser, _ := adapter.SetupLogger(&cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("starting shutter", "version", Version)

	if opts.clearCache || opts.clearHistory {
		return clearData(cfg, opts)
	}

	// Check if configured
	if !cfg.IsConfigured() {
		if opts.plain || !term.IsTerminal(int(syscall.Stdin)) {
			return errors.New("no Unsplash access key configured (set SHUTTER_API_CLIENT_ID or run shutter interactively)")
		}
		if err := runSetupFlow(cfg); err != nil {
			return err
		}
	}

	httpTransport := transport.NewHTTP(logger, transport.WithTimeout(cfg.API.Timeout))
	client := unsplash.NewClient(cfg.API.BaseURL, cfg.API.ClientID, cfg.API.PerPage, httpTransport, logger)

	images := imagecache.New(httpTransport, cfg.Cache.Dir,
		imagecache.WithCapacity(cfg.Cache.MemoryCapacity),
		imagecache.WithDownloadTimeout(cfg.API.Timeout),
		imagecache.WithLogger(logger),
	)
	defer func() {
		s := images.Stats()
		logger.Info("image cache stats",
			"hits", s.Hits, "diskHits", s.DiskHits, "misses", s.Misses,
			"downloads", s.Downloads, "evictions", s.Evictions, "diskEnabled", images.DiskEnabled())
	}()

	if opts.plain {
		if opts.term == "" {
			return errors.New("plain mode needs a search term")
		}
		ctrl := pagination.New(client,
			pagination.WithLogger(logger),
			pagination.WithDebounce(0),
			pagination.WithDefaultRowSize(cfg.Pagination.DefaultRowSize),
			pagination.WithFetchTimeout(cfg.API.Timeout),
		)
		defer ctrl.Close()
		return runPlain(os.Stdout, ctrl, opts.term, opts.rows)
	}

	history, err := store.NewHistory(cfg.History.Dir)
	if err != nil {
		logger.Warn("search history unavailable, keeping it in memory", "error", err)
		history, _ = store.NewHistory("")
	}
	defer history.Close()

	events := make(chan tea.Msg, tui.EventBufferSize)
	ctrl := pagination.New(client,
		pagination.WithLogger(logger),
		pagination.WithObserver(tui.NewChannelObserver(events)),
		pagination.WithDebounce(cfg.Pagination.Debounce),
		pagination.WithDefaultRowSize(cfg.Pagination.DefaultRowSize),
		pagination.WithFetchTimeout(cfg.API.Timeout),
	)
	defer ctrl.Close()

	model := tui.NewModel(tui.Options{
		Controller:       ctrl,
		Images:           images,
		History:          history,
		Events:           events,
		Logger:           logger,
		ThumbnailVariant: cfg.UI.ThumbnailVariant,
		HistorySize:      cfg.UI.HistorySize,
		ImageTimeout:     cfg.API.Timeout,
		InitialTerm:      opts.term,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

func clearData(cfg *adapter.Config, opts *options) error {
	if opts.clearCache {
		if err := imagecache.ClearDisk(cfg.Cache.Dir); err != nil {
			return err
		}
		fmt.Println("✓ Image cache cleared")
	}
	if opts.clearHistory {
		history, err := store.NewHistory(cfg.History.Dir)
		if err != nil {
			return fmt.Errorf("failed to open search history: %w", err)
		}
		defer history.Close()
		if err := history.Clear(); err != nil {
			return fmt.Errorf("failed to clear search history: %w", err)
		}
		fmt.Println("✓ Search history cleared")
	}
	return nil
}

// runSetupFlow asks for an API access key and saves it to the config file
func runSetupFlow(cfg *adapter.Config) error {
	fmt.Println()
	fmt.Println("Welcome to Shutter!")
	fmt.Println()
	fmt.Println("An Unsplash access key is required: https://unsplash.com/oauth/applications")
	fmt.Println()

	for {
		fmt.Print("Access key: ")
		keyBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			// Not a real terminal after all; read a plain line
			line, rerr := bufio.NewReader(os.Stdin).ReadString('\n')
			if rerr != nil {
				return fmt.Errorf("failed to read input: %w", rerr)
			}
			keyBytes = []byte(line)
		}

		key := strings.TrimSpace(string(keyBytes))
		if key == "" {
			fmt.Println("Access key cannot be empty. Please try again.")
			continue
		}
		cfg.API.ClientID = key
		break
	}

	if err := adapter.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	return nil
}
