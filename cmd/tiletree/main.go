package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tiletree/internal/actionlog"
	"github.com/1broseidon/tiletree/internal/config"
	"github.com/1broseidon/tiletree/internal/ipc"
	"github.com/1broseidon/tiletree/internal/runtimepath"
	"github.com/1broseidon/tiletree/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "tree":
		os.Exit(runTree(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tiletree <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the tiletree daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  reload              Ask the daemon to reload its config")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tree new            Create a tree")
	fmt.Fprintln(w, "  tree free           Release a tree")
	fmt.Fprintln(w, "  tree list           List trees")
	fmt.Fprintln(w, "  tree show           Print a tree")
	fmt.Fprintln(w, "  tree add            Add a window")
	fmt.Fprintln(w, "  tree remove         Remove a window and its subtree")
	fmt.Fprintln(w, "  tree attrs          Replace a window's metadata")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config path         Print the config file location")
	fmt.Fprintln(w, "  config show         Print configuration")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open the interactive tree browser")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'tiletree <command> --help' for command-specific options.")
}

func isHelp(args []string) bool {
	return len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help")
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

// newClient resolves the daemon socket from the flag, then the socket_path
// config key, then the runtime directory.
func newClient(socketFlag string) (*ipc.Client, error) {
	override := socketFlag
	if override == "" {
		if cfg, err := config.Load(); err == nil {
			override = cfg.SocketPath
		}
	}
	socket, err := runtimepath.ResolveSocketPath(override)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return ipc.NewClientWithSocket(socket), nil
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "Daemon socket path")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tiletree status [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := newClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("socket_path:    %s\n", status.SocketPath)
	fmt.Printf("trees:          %d\n", status.Trees)
	fmt.Printf("windows:        %d\n", status.Windows)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "Daemon socket path")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tiletree reload [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Reload the daemon's configuration file.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := newClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := client.Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

// configKeys lists every config path in file order, for `config show --sources`.
var configKeys = []string{
	"log_level",
	"socket_path",
	"default_direction",
	"root_name",
	"limits.max_trees",
	"limits.max_windows_per_tree",
	"logging.enabled",
	"logging.level",
	"logging.file",
	"logging.max_size_mb",
	"logging.max_files",
}

func runConfig(args []string) int {
	if len(args) == 0 || isHelp(args) {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  tiletree config path")
		fmt.Fprintln(os.Stderr, "  tiletree config show [--path PATH] [--defaults|--sources]")
		fmt.Fprintln(os.Stderr, "  tiletree config validate [--path PATH]")
		return 2
	}

	switch args[0] {
	case "path":
		path, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(path)
		return 0

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/tiletree/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("config: ok (%d file(s))\n", len(res.Files))
		return 0

	case "show":
		fs := flag.NewFlagSet("show", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/tiletree/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		printSources := fs.Bool("sources", false, "Print where each value came from")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		if *printDefaults {
			data, err := yaml.Marshal(config.DefaultConfig())
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			fmt.Print(string(data))
			return 0
		}

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		if *printSources {
			for _, key := range configKeys {
				fmt.Printf("%-28s %s\n", key, formatSource(res.SourceOf(key)))
			}
			return 0
		}

		data, err := yaml.Marshal(res.Config)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		return "default"
	default:
		return string(src.Kind)
	}
}

func parseSlogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/tiletree/config.yaml)")
	socketFlag := fs.String("socket", "", "Socket path (default: socket_path from config, else $XDG_RUNTIME_DIR/tiletree.sock)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tiletree daemon [--path PATH] [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Hold named layout trees in memory and serve them over a unix socket.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	configFile := *path
	if configFile == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			log.Fatalf("Failed to resolve config path: %v", err)
		}
		configFile = p
	}

	res, err := config.LoadFromPath(configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := res.Config

	level := new(slog.LevelVar)
	level.Set(parseSlogLevel(cfg.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logger.Info("configuration loaded", "files", len(res.Files), "default_direction", cfg.DefaultDirection, "root_name", cfg.GetRootName())

	var actions *actionlog.Logger
	if lc := cfg.ActionLogConfig(); lc.Enabled {
		actions, err = actionlog.New(lc)
		if err != nil {
			logger.Warn("action log disabled", "err", err)
			actions = nil
		} else {
			defer actions.Close()
			logger.Info("action log enabled", "file", lc.FilePath)
		}
	}

	store := session.NewStore(session.WithLogger(actions))

	socketOverride := *socketFlag
	if socketOverride == "" {
		socketOverride = cfg.SocketPath
	}
	socketPath, err := runtimepath.ResolveSocketPath(socketOverride)
	if err != nil {
		log.Fatalf("Failed to resolve IPC socket path: %v", err)
	}

	reloadChan := make(chan struct{}, 1)
	notifyReload := func() {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
	}

	ipcServer, err := ipc.NewServer(socketPath, cfg, store, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	loadFile := func() (*config.Config, error) {
		r, err := config.LoadFromPath(configFile)
		if err != nil {
			return nil, err
		}
		return r.Config, nil
	}
	ipcServer.SetConfigLoader(loadFile)
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := config.NewWatcher(configFile, func(r *config.LoadResult, err error) {
		if err != nil {
			logger.Warn("config reload failed", "file", configFile, "err", err)
			return
		}
		ipcServer.UpdateConfig(r.Config)
		notifyReload()
	})
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Warn("config watcher stopped", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	logger.Info("tiletree daemon started", "socket", socketPath)

loop:
	for {
		select {
		case sig := <-sigCh:
			if sig != syscall.SIGHUP {
				logger.Info("shutting down", "signal", sig.String())
				break loop
			}
			logger.Info("received SIGHUP, reloading config")
			newCfg, err := loadFile()
			if err != nil {
				logger.Warn("config reload failed", "err", err)
				continue
			}
			ipcServer.UpdateConfig(newCfg)
			notifyReload()

		case <-reloadChan:
			// The IPC server already pushed limits and root name to the store.
			newCfg := ipcServer.GetConfig()
			level.Set(parseSlogLevel(newCfg.LogLevel))
			logger.Info("config applied",
				"max_trees", newCfg.GetMaxTrees(),
				"max_windows_per_tree", newCfg.GetMaxWindowsPerTree(),
				"root_name", newCfg.GetRootName(),
			)
		}
	}

	cancel()
	if err := ipcServer.Stop(); err != nil {
		logger.Warn("IPC server stop", "err", err)
	}
	released := store.Close()
	logger.Info("daemon stopped", "released_records", released)
	return 0
}
