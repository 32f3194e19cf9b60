package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kirkezz/parkour-analyzer/internal/api"
	"github.com/Kirkezz/parkour-analyzer/internal/daemonctl"
	"github.com/Kirkezz/parkour-analyzer/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the parkour daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the parkour daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			} else {
				fmt.Fprintln(stdout, "Stopping watch session...")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and watch status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			statusResp, err := daemonctl.BuildStatusSnapshot(ctx.socketPath(), cfg)
			if err != nil {
				return err
			}
			checks := daemonctl.BuildSystemChecks(cfg, statusResp.Running)

			if statusJSON {
				payload := struct {
					Status *ipc.StatusResponse `json:"status"`
					Checks []api.StatusLine    `json:"checks"`
				}{statusResp, checks}
				return writeJSON(cmd, payload)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("System Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range checks {
				fmt.Fprintln(stdout, renderStatusLine(line.Label, statusKindFromSeverity(line.Severity), line.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Watch", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range watchLines(statusResp, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonLines(statusResp, colorize) {
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Emit machine-readable JSON")

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the parkour daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			switch result.Start.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			}
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

// watchLines renders the watch section of the status output. Only the state
// is meaningful while the daemon is down.
func watchLines(resp *ipc.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, 4)
	state := strings.TrimSpace(resp.Watch.State)
	if state == "" {
		state = "unknown"
	}
	lines = append(lines, renderStatusLine("State", watchStateKind(state), state, colorize))
	if !resp.Running {
		return lines
	}
	if resp.Watch.ActivePath != "" {
		lines = append(lines, renderStatusLine("Log file", statusOK, resp.Watch.ActivePath, colorize))
	} else {
		lines = append(lines, renderStatusLine("Log file", statusInfo, "not located yet", colorize))
	}
	lines = append(lines, renderStatusLine("Updates", statusInfo, strconv.FormatUint(resp.Watch.Updates, 10), colorize))
	if msg := strings.TrimSpace(resp.Watch.LastError); msg != "" {
		lines = append(lines, renderStatusLine("Last error", statusWarn, msg, colorize))
	}
	return lines
}

func daemonLines(resp *ipc.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, 5)
	if !resp.Running {
		lines = append(lines, renderStatusLine("Socket", statusInfo, resp.SocketPath, colorize))
		return lines
	}
	lines = append(lines, renderStatusLine("PID", statusInfo, strconv.Itoa(resp.PID), colorize))
	if resp.SessionID != "" {
		lines = append(lines, renderStatusLine("Session", statusInfo, resp.SessionID, colorize))
	}
	if resp.StartedAt != "" {
		lines = append(lines, renderStatusLine("Started", statusInfo, resp.StartedAt, colorize))
	}
	lines = append(lines, renderStatusLine("Socket", statusInfo, resp.SocketPath, colorize))
	if resp.LogPath != "" {
		lines = append(lines, renderStatusLine("Run log", statusInfo, resp.LogPath, colorize))
	}
	return lines
}

func watchStateKind(state string) statusKind {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "watching":
		return statusOK
	case "searching":
		return statusWarn
	case "failed":
		return statusError
	case "aborted":
		return statusWarn
	default:
		return statusInfo
	}
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
