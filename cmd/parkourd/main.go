// Command parkourd runs the Parkour watch daemon in the foreground. It is
// the entry point for service managers; interactive use goes through the
// parkour CLI, which launches the same runtime via its hidden daemon
// subcommand.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/Kirkezz/parkour-analyzer/internal/config"
	"github.com/Kirkezz/parkour-analyzer/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Path to the configuration file")
	socketPath := flag.String("socket", "", "Path to the daemon control socket")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel:   *logLevel,
		SocketPath: *socketPath,
	}); err != nil {
		log.Fatalf("parkourd: %v", err)
	}
}
