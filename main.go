package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/spf13/cobra"

	"github.com/voidowl/portfolio/internal/rotate"
)

var (
	serveAddr string
	heroPath  string

	unitsSplit   string
	unitsStagger int
	unitsFrom    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "portfolio",
		Short:        "voidowl portfolio site",
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().StringVar(&heroPath, "hero", "", "hero config file (default $HERO_CONFIG or hero.toml)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :$PORT)")

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview the rotating headline in the terminal",
		RunE:  runPreview,
	}

	unitsCmd := &cobra.Command{
		Use:   "units <text>",
		Short: "Print display units and stagger delays for a text",
		Args:  cobra.ExactArgs(1),
		RunE:  runUnits,
	}
	unitsCmd.Flags().StringVar(&unitsSplit, "split", "characters", "characters, words, lines or a literal delimiter")
	unitsCmd.Flags().IntVar(&unitsStagger, "stagger", 25, "stagger duration in milliseconds")
	unitsCmd.Flags().StringVar(&unitsFrom, "from", "first", "first, last, center, random or an offset")

	rootCmd.AddCommand(serveCmd, previewCmd, unitsCmd)
	return rootCmd
}

func resolveHeroPath(cfg serverConfig) string {
	if heroPath != "" {
		return heroPath
	}
	return cfg.HeroPath
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := loadServerConfig()
	logger := newLogger(cfg.LogLevel)

	settings, err := loadHeroSettings(resolveHeroPath(cfg))
	if err != nil {
		return err
	}
	hero, err := NewHero(settings, logger)
	if err != nil {
		return fmt.Errorf("failed to build headline: %w", err)
	}

	store, err := OpenStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer store.Close()

	admin, err := NewAdmin(cfg, store, hero, logger)
	if err != nil {
		return fmt.Errorf("failed to init admin: %w", err)
	}
	go admin.cleanupOldVisitorData()

	srv, err := NewServer(hero, admin, logger)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	if err := hero.Start(context.Background()); err != nil {
		return err
	}
	defer hero.Close()

	addr := serveAddr
	if addr == "" {
		addr = ":" + cfg.Port
	}
	httpSrv := &http.Server{Addr: addr, Handler: srv.Router()}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	// Closing the hero ends open event streams so Shutdown can drain.
	hero.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func runUnits(cmd *cobra.Command, args []string) error {
	from, err := rotate.ParseStaggerOrigin(unitsFrom)
	if err != nil {
		return err
	}
	cfg := rotate.DefaultConfig(args)
	cfg.Split = rotate.ParseSplitMode(unitsSplit)
	cfg.StaggerDuration = time.Duration(unitsStagger) * time.Millisecond
	cfg.StaggerFrom = from
	cfg.Auto = false
	e, err := rotate.New(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-6s %-6s %-12s %-5s %s\n", "OFFSET", "GROUP", "CONTENT", "SEP", "DELAY")
	for _, u := range e.Units() {
		fmt.Fprintf(out, "%-6d %-6d %-12q %-5t %s\n", u.Offset, u.Group, u.Content, u.TrailingSeparator, e.Delay(u))
	}
	return nil
}
