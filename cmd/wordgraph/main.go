/*
Package main runs the wordgraph suggestion server.

wordgraph serves ranked "next word" suggestions for a documentation site's
search box, backed by a sharded word-adjacency index produced at build time.
Shards are loaded lazily as queries touch them and bounded by an LRU policy,
so a long typing session only ever keeps a handful of shards in memory.

# Usage

Start the server with default settings:

	wordgraph

Use a custom shard directory and enable debug logging:

	wordgraph -data /path/to/shards -d

The shard directory holds msgpack payload files named pair_0000.bin,
pair_0001.bin, etc., plus an optional partition.bin sidecar mapping words to
their owning shard. Without a sidecar, ownership is resolved by stable hash
over the total shard count.

# Configuration

Runtime configuration is a TOML file, created with defaults on first run:

	[index]
	capacity = 8

	[query]
	default_limit = 10
	max_limit = 64
	min_weight = 0
	prefix_fallback = true

	[shards]
	dir = "data/"
	total = 70

# IPC Protocol

The server speaks length-prefixed msgpack frames over stdin/stdout; see the
server package for the message catalogue. Suggestion responses are delivered
asynchronously and correlate to requests by id, which lets a client keep
typing without blocking on earlier keystrokes.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordgraph/internal/logger"
	"github.com/bastiangx/wordgraph/pkg/config"
	"github.com/bastiangx/wordgraph/pkg/server"
	"github.com/bastiangx/wordgraph/pkg/shard"
	"github.com/bastiangx/wordgraph/pkg/suggest"
)

const (
	Version = "0.3.0"
	AppName = "wordgraph"
	gh      = "https://github.com/bastiangx/wordgraph"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires config, store and index together and hands off to the server.
func main() {
	sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to a custom config.toml")
	dataDir := flag.String("data", "", "Directory containing shard payload files (overrides config)")
	capacity := flag.Int("capacity", 0, "Maximum simultaneously loaded shards (overrides config)")
	total := flag.Int("total", 0, "Total shard count for hash partitioning (overrides config)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	cfg, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config: %s", config.GetActiveConfigPath(activePath))

	if *dataDir != "" {
		cfg.Shards.Dir = *dataDir
	}
	if *capacity > 0 {
		cfg.Index.Capacity = *capacity
	}
	if *total > 0 {
		cfg.Shards.Total = *total
	}

	store := shard.NewDirStore(cfg.Shards.Dir)
	if ids, err := store.Available(); err == nil {
		log.Debugf("Found %d shard files in %s", len(ids), cfg.Shards.Dir)
	} else {
		log.Warnf("Could not scan shard dir %s: %v", cfg.Shards.Dir, err)
	}

	partition := resolvePartitioner(cfg)

	ix := suggest.New(store, suggest.FromConfig(cfg), suggest.WithPartitioner(partition))
	defer ix.Close()

	if len(cfg.Index.Prewarm) > 0 {
		ids := make([]shard.ID, len(cfg.Index.Prewarm))
		for i, id := range cfg.Index.Prewarm {
			ids[i] = shard.ID(id)
		}
		if err := ix.Prewarm(context.Background(), ids...); err != nil {
			log.Warnf("Prewarm incomplete: %v", err)
		}
	}

	showStartupInfo(cfg.Shards.Dir)

	srv := server.NewServer(ix, cfg)
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// resolvePartitioner prefers an explicit partition table sidecar and falls
// back to hash bucketing over the configured shard count.
func resolvePartitioner(cfg *config.Config) shard.PartitionFunc {
	if cfg.Shards.PartitionTable != "" {
		table, err := shard.LoadPartitionTable(cfg.Shards.PartitionTable)
		if err == nil {
			log.Debugf("Partition table loaded: %d words", len(table))
			return shard.TablePartitioner(table)
		}
		log.Warnf("Falling back to hash partitioning: %v", err)
	}
	return shard.HashPartitioner(cfg.Shards.Total)
}

func printVersion() {
	logger := logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter)

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ wordgraph ] Next-word suggestions from sharded adjacency data")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(dataDir string) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("shard dir: ( %s )", dataDir)
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
