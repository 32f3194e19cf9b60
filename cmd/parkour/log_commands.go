package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kirkezz/parkour-analyzer/internal/api"
	"github.com/Kirkezz/parkour-analyzer/internal/config"
	"github.com/Kirkezz/parkour-analyzer/internal/fileutil"
	"github.com/Kirkezz/parkour-analyzer/internal/ipc"
	"github.com/Kirkezz/parkour-analyzer/internal/logpath"
)

func newLocationCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Print the path of the active Minecraft log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LogLocation()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.LogLocationResponse{Path: resp.Path})
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Path)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newPathsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "List candidate Minecraft log locations in probe order",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := fetchPaths(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}

			stdout := cmd.OutOrStdout()
			rows := make([][]string, 0, len(resp.Candidates))
			for _, candidate := range resp.Candidates {
				rows = append(rows, []string{candidate.Client, candidate.Path, yesNo(candidate.Exists)})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Client", "Path", "Exists"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			if resp.Active != "" {
				fmt.Fprintf(stdout, "Active: %s\n", resp.Active)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

// fetchPaths asks the daemon for its candidate list and falls back to local
// resolution when the daemon is down. The active path is only known to a
// running daemon.
func fetchPaths(ctx *commandContext) (*ipc.DefaultPathsResponse, error) {
	client, err := ctx.dialClient()
	if err == nil {
		defer client.Close()
		return client.DefaultPaths()
	}

	cfg := ctx.configValue()
	if cfg == nil {
		return nil, err
	}
	resolver := logpath.New(
		logpath.WithPinnedPath(cfg.Watch.LogPath),
		logpath.WithExtraCandidates(cfg.Watch.ExtraCandidates),
	)
	resp := &ipc.DefaultPathsResponse{}
	for _, candidate := range resolver.Candidates() {
		resp.Candidates = append(resp.Candidates, api.PathCandidate{
			Path:   candidate.Path,
			Client: candidate.Client,
			Exists: resolver.Valid(candidate.Path),
		})
	}
	return resp, nil
}

func newContentCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var outputPath string
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Print the full content of the active Minecraft log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LogContent()
				if err != nil {
					return err
				}
				if outputPath != "" {
					target, err := config.ExpandPath(outputPath)
					if err != nil {
						return fmt.Errorf("resolve output path: %w", err)
					}
					if err := fileutil.WriteFileAtomic(target, []byte(resp.Content), 0o644); err != nil {
						return fmt.Errorf("write output: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s (fingerprint %016x)\n",
						len(resp.Content), target, resp.Fingerprint)
					return nil
				}
				if asJSON {
					return writeJSON(cmd, api.LogContentResponse{
						Path:        resp.Path,
						Content:     resp.Content,
						Fingerprint: resp.Fingerprint,
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), resp.Content)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the log content to a file instead of stdout")
	return cmd
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate PATH",
		Short: "Check whether a path points to a readable log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ValidatePath(path)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.ValidateResponse{Path: resp.Path, Valid: resp.Valid})
				}
				if !resp.Valid {
					return fmt.Errorf("path is not a watchable log file: %s", resp.Path)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Path is watchable: %s\n", resp.Path)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe PATH",
		Short: "Announce a log file to event consumers without re-pinning the watch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("inspect path %q: %w", path, err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Probe(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Announced %s to event consumers\n", path)
				return nil
			})
		},
	}
	return cmd
}
