package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"library-catalog/internal/config"
	"library-catalog/library"
	"library-catalog/report"
)

var (
	configPath string
	backend    string
	verbose    bool

	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "In-memory library catalog with lending and summary charts",
	Long: `catalog keeps books, users and lend/return transactions in memory
for the lifetime of one command and renders summary charts on the console.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("backend") {
			loaded.Backend = backend
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		cfg = loaded

		level, _ := config.ParseLevel(cfg.LogLevel)
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", config.BackendMemory, "record store: memory or sqlite")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// openCatalog builds a catalog on the configured store and loads the seed.
func openCatalog(c config.Config, logger *slog.Logger) (*library.LibraryManager, error) {
	var store library.Store = library.NewMemStore()
	if c.Backend == config.BackendSQLite {
		db, err := library.NewDatabase()
		if err != nil {
			return nil, err
		}
		store = db
	}

	mgr := library.NewLibraryManager(library.WithStore(store), library.WithLogger(logger))
	if err := seedCatalog(mgr, c.Seed); err != nil {
		mgr.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	return mgr, nil
}

func seedCatalog(mgr *library.LibraryManager, seed config.Seed) error {
	for _, name := range seed.Users {
		if _, err := mgr.AddUser(name); err != nil {
			return err
		}
	}
	for _, b := range seed.Books {
		if _, err := mgr.AddBook(b.Title, b.Author, b.Genre); err != nil {
			return err
		}
	}
	for _, l := range seed.Loans {
		if _, err := mgr.LendBook(l.User, l.Book); err != nil {
			return err
		}
	}
	return nil
}

// newRenderer sizes charts from config, falling back to the terminal.
func newRenderer(c config.Config, w io.Writer) *report.Renderer {
	color := report.IsTerminal(w)
	if c.Color != nil {
		color = *c.Color
	}
	return report.NewRenderer(w, report.WithWidth(c.ChartWidth), report.WithColor(color))
}
