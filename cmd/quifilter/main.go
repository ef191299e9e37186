// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autobrr/quifilter/internal/api"
	"github.com/autobrr/quifilter/internal/buildinfo"
	"github.com/autobrr/quifilter/internal/config"
	"github.com/autobrr/quifilter/internal/domain"
	"github.com/autobrr/quifilter/internal/filters"
	"github.com/autobrr/quifilter/internal/metrics"
	"github.com/autobrr/quifilter/internal/qbittorrent"
)

func main() {
	config.InitDefaultLogger(buildinfo.Version)

	var rootCmd = &cobra.Command{
		Use:   "quifilter",
		Short: "Compile qBittorrent column filters into torrent expressions",
		Long: `quifilter - compiles web-UI column filters into expressions over the
qBittorrent torrent model and evaluates filters locally against torrents and
indexer search results.`,
	}

	rootCmd.Version = buildinfo.Version

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunCompileCommand())
	rootCmd.AddCommand(RunColumnsCommand())
	rootCmd.AddCommand(RunVersionCommand(buildinfo.Print()))
	rootCmd.AddCommand(RunGenerateConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunServeCommand() *cobra.Command {
	var (
		configDir string
		dataDir   string
		logPath   string
		pprofFlag bool
	)

	var command = &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/quifilter/ or %APPDATA%\\quifilter\\). Can also be a direct path to a .toml file")
	command.Flags().StringVar(&dataDir, "data-dir", "", "data directory (default is next to config file)")
	command.Flags().StringVar(&logPath, "log-path", "", "log file path (default is stdout)")
	command.Flags().BoolVar(&pprofFlag, "pprof", false, "enable pprof server on :6060")

	command.Run = func(cmd *cobra.Command, args []string) {
		app := NewApplication(configDir, dataDir, logPath, pprofFlag)
		app.runServer()
	}

	return command
}

func RunCompileCommand() *cobra.Command {
	var (
		file       string
		setName    string
		rawFilters []string
		connective string
	)

	command := &cobra.Command{
		Use:   "compile",
		Short: "Compile column filters into an expression",
		Long: `Compile column filters into a torrent filter expression and print it.

Filters are read from a filter sets file (YAML or JSON) or passed as JSON objects:
  quifilter compile --filter '{"columnId":"ratio","operation":"gt","value":"2"}'
  quifilter compile --file filters.yaml --set "Low ratio"

Filters that cannot be compiled are reported on stderr and left out of the expression.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" && len(rawFilters) > 0 {
				return errors.New("use either --file or --filter, not both")
			}

			var columnFilters []filters.ColumnFilter
			setConnective := ""

			switch {
			case file != "":
				sets, err := filters.LoadFilterSets(file)
				if err != nil {
					return err
				}
				if len(sets) == 0 {
					return fmt.Errorf("no filter sets found in %s", file)
				}

				set := sets[0]
				if setName != "" {
					found, ok := filters.FindFilterSet(sets, setName)
					if !ok {
						return fmt.Errorf("filter set %q not found in %s", setName, file)
					}
					set = found
				}
				columnFilters = set.Filters
				setConnective = set.Connective
			case len(rawFilters) > 0:
				for _, raw := range rawFilters {
					var f filters.ColumnFilter
					if err := json.Unmarshal([]byte(raw), &f); err != nil {
						return fmt.Errorf("invalid filter %q: %w", raw, err)
					}
					columnFilters = append(columnFilters, f)
				}
			default:
				return errors.New("no filters given: use --file or --filter")
			}

			if connective == "" {
				connective = setConnective
			}
			conn, ok := filters.ParseConnective(connective)
			if !ok {
				return fmt.Errorf("invalid connective %q: must be \"and\" or \"or\"", connective)
			}

			compilation := filters.CompileAll(columnFilters, conn)
			for _, dropped := range compilation.Dropped {
				fmt.Fprintf(cmd.ErrOrStderr(), "dropped filter %d (%s): %s: %s\n", dropped.Index, dropped.ColumnID, dropped.Reason, dropped.Message)
			}

			for _, line := range describeByteOperands(filters.DefaultRegistry(), columnFilters, compilation.Dropped) {
				fmt.Fprintln(cmd.ErrOrStderr(), line)
			}
			fmt.Fprintln(cmd.OutOrStdout(), compilation.Expr)
			return nil
		},
	}

	command.Flags().StringVar(&file, "file", "", "filter sets file (YAML or JSON)")
	command.Flags().StringVar(&setName, "set", "", "name of the filter set to compile (defaults to the first set)")
	command.Flags().StringArrayVar(&rawFilters, "filter", nil, "column filter as JSON, may be repeated")
	command.Flags().StringVar(&connective, "connective", "", "join filters with \"and\" or \"or\" (default and)")

	return command
}

// describeByteOperands echoes the converted bounds of compiled size and speed filters in human units.
func describeByteOperands(registry *filters.Registry, columnFilters []filters.ColumnFilter, dropped []filters.DroppedFilter) []string {
	skip := make(map[int]struct{}, len(dropped))
	for _, d := range dropped {
		skip[d.Index] = struct{}{}
	}

	var lines []string
	for i, f := range columnFilters {
		if _, ok := skip[i]; ok {
			continue
		}

		var convert func(value string, second bool) (int64, error)
		suffix := ""
		switch registry.ColumnType(f.ColumnID) {
		case filters.ColumnTypeSize:
			convert = func(value string, second bool) (int64, error) {
				unit := f.SizeUnit
				if second && f.SizeUnit2 != "" {
					unit = f.SizeUnit2
				}
				return filters.SizeToBytes(value, unit)
			}
		case filters.ColumnTypeSpeed:
			suffix = "/s"
			convert = func(value string, second bool) (int64, error) {
				unit := f.SpeedUnit
				if second && f.SpeedUnit2 != "" {
					unit = f.SpeedUnit2
				}
				return filters.SpeedToBytesPerSecond(value, unit)
			}
		default:
			continue
		}

		bounds := []string{f.Value}
		if f.Operation == filters.OperationBetween {
			bounds = append(bounds, f.Value2)
		}

		human := make([]string, 0, len(bounds))
		for j, value := range bounds {
			n, err := convert(value, j == 1)
			if err != nil || n < 0 {
				human = nil
				break
			}
			human = append(human, humanize.IBytes(uint64(n))+suffix)
		}
		if len(human) == 0 {
			continue
		}

		lines = append(lines, fmt.Sprintf("filter %d (%s %s): %s", i, f.ColumnID, f.Operation, strings.Join(human, " .. ")))
	}

	return lines
}

func RunColumnsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "columns",
		Short: "List filterable torrent columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := filters.DefaultRegistry()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COLUMN\tFIELD\tTYPE\tOPERATIONS")
			for _, column := range registry.Columns() {
				field, _ := registry.FieldName(column.ID)
				if remapped := registry.Remapped(column.ID); remapped != column.ID {
					field = fmt.Sprintf("%s (as %s)", field, remapped)
				}

				ops := filters.AvailableOperations(column.Type)
				names := make([]string, 0, len(ops))
				for _, op := range ops {
					names = append(names, string(op))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", column.ID, field, column.Type, strings.Join(names, ","))
			}
			return w.Flush()
		},
	}

	return command
}

func RunVersionCommand(version string) *cobra.Command {
	var command = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of quifilter",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	return command
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file without starting the server.

If no --config-dir is specified, uses the OS-specific default location:
- Linux/macOS: ~/.config/quifilter/config.toml
- Windows: %APPDATA%\quifilter\config.toml

You can specify either a directory path or a direct file path:
- Directory: quifilter generate-config --config-dir /path/to/config/
- File: quifilter generate-config --config-dir /path/to/myconfig.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath string
			if configDir != "" {
				if strings.HasSuffix(strings.ToLower(configDir), ".toml") {
					configPath = configDir
				} else if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
					configPath = configDir
				} else {
					configPath = filepath.Join(configDir, "config.toml")
				}
			} else {
				configPath = filepath.Join(config.GetDefaultConfigDir(), "config.toml")
			}

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				cmd.Println("Skipping generation to avoid overwriting existing configuration.")
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created successfully at: %s\n", configPath)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")

	return command
}

type Application struct {
	configDir string
	dataDir   string
	logPath   string
	pprofFlag bool
}

func NewApplication(configDir, dataDir, logPath string, pprofFlag bool) *Application {
	return &Application{
		configDir: configDir,
		dataDir:   dataDir,
		logPath:   logPath,
		pprofFlag: pprofFlag,
	}
}

func (app *Application) runServer() {
	cfg, err := config.New(app.configDir, buildinfo.Version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize configuration")
	}

	// Override with CLI flags if provided
	if app.dataDir != "" {
		os.Setenv("QUIFILTER__DATA_DIR", app.dataDir)
		cfg.SetDataDir(app.dataDir)
	}
	if app.logPath != "" {
		os.Setenv("QUIFILTER__LOG_PATH", app.logPath)
		cfg.Config.LogPath = app.logPath
	}
	if app.pprofFlag {
		cfg.Config.PprofEnabled = true
	}

	cfg.ApplyLogConfig()

	log.Info().Str("version", buildinfo.Version).Msg("Starting quifilter")

	metricsManager := metrics.NewMetricsManager()
	expressions := qbittorrent.NewExpressionFilter(cfg.GetExpressionCacheTTL())

	cfg.RegisterReloadListener(func(conf *domain.Config) {
		log.Debug().
			Str("defaultConnective", conf.DefaultConnective).
			Str("filterSetsPath", conf.FilterSetsPath).
			Msg("Filter settings reloaded")
	})

	httpServer := api.NewServer(&api.Dependencies{
		Config:         cfg,
		Version:        buildinfo.Version,
		Compiler:       filters.NewCompiler(nil),
		Expressions:    expressions,
		MetricsManager: metricsManager,
		LoadFilterSets: func() ([]filters.FilterSet, error) {
			return filters.LoadFilterSets(cfg.GetFilterSetsPath())
		},
	})

	errorChannel := make(chan error)
	serverReady := make(chan struct{}, 1)
	go func() {
		if err := httpServer.ListenAndServeReady(serverReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorChannel <- err
		}
	}()

	select {
	case <-serverReady:
		if sets, err := filters.LoadFilterSets(cfg.GetFilterSetsPath()); err != nil {
			log.Warn().Err(err).Str("path", cfg.GetFilterSetsPath()).Msg("Failed to load filter sets")
		} else {
			log.Info().Int("sets", len(sets)).Str("path", cfg.GetFilterSetsPath()).Msg("Filter sets available")
		}
	case err := <-errorChannel:
		log.Fatal().Err(err).Msg("failed to start HTTP server")
	}

	var metricsServer *metrics.Server
	if cfg.Config.MetricsEnabled {
		metricsServer = metrics.NewMetricsServer(metricsManager, cfg.Config.MetricsHost, cfg.Config.MetricsPort)

		go func() {
			if err := metricsServer.ListenAndServe(); err != nil {
				errorChannel <- err
			}
		}()
	}

	if cfg.Config.PprofEnabled {
		go func() {
			log.Info().Msg("Starting pprof server on :6060")
			log.Info().Msg("Access profiling at: http://localhost:6060/debug/pprof/")
			if err := http.ListenAndServe(":6060", nil); err != nil {
				log.Error().Err(err).Msg("Profiling server failed")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Msgf("got signal %v, shutting down server", sig.String())
	case err := <-errorChannel:
		log.Error().Err(err).Msg("got unexpected error from server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("got error during metrics server shutdown")
		}
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("got error during graceful http shutdown")

		os.Exit(1)
	}

	os.Exit(0)
}
