package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kirkezz/parkour-analyzer/internal/events"
	"github.com/Kirkezz/parkour-analyzer/internal/eventstream"
	"github.com/Kirkezz/parkour-analyzer/internal/ipc"
	"github.com/Kirkezz/parkour-analyzer/internal/logs"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var tail int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show watch events (log located, content updates, errors)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			apiClient, err := logs.NewStreamClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
			if err != nil {
				return fmt.Errorf("configure events client: %w", err)
			}

			fallback := &lazyEventsClient{ctx: ctx}
			defer fallback.Close()

			stdout := cmd.OutOrStdout()
			var emit func(events.Event)
			if asJSON {
				enc := json.NewEncoder(stdout)
				emit = func(evt events.Event) { _ = enc.Encode(evt) }
			} else {
				emit = func(evt events.Event) { fmt.Fprintln(stdout, formatEvent(evt)) }
			}

			printed, err := eventstream.Stream(cmd.Context(), apiClient, fallback,
				eventstream.Options{Tail: tail, Follow: follow}, emit)
			if err != nil {
				return err
			}
			if !printed && !follow && !asJSON {
				fmt.Fprintln(stdout, "No events recorded")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new events")
	cmd.Flags().IntVarP(&tail, "tail", "n", 20, "Number of buffered events to replay first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit one JSON object per event")
	return cmd
}

// lazyEventsClient defers the IPC dial until the API fallback actually fires,
// so reaching the daemon over HTTP never touches the socket.
type lazyEventsClient struct {
	ctx    *commandContext
	client *ipc.Client
}

func (l *lazyEventsClient) Events(req ipc.EventsRequest) (*ipc.EventsResponse, error) {
	if l.client == nil {
		client, err := l.ctx.dialClient()
		if err != nil {
			return nil, err
		}
		l.client = client
	}
	return l.client.Events(req)
}

func (l *lazyEventsClient) Close() {
	if l.client != nil {
		_ = l.client.Close()
		l.client = nil
	}
}

func formatEvent(evt events.Event) string {
	ts := evt.Timestamp.Format("15:04:05")
	kind := strings.ToUpper(strings.TrimPrefix(string(evt.Type), "log-"))
	switch evt.Type {
	case events.TypeUpdate:
		return fmt.Sprintf("%s  %-8s  %s", ts, kind, summarizeContent(evt.Payload))
	default:
		return fmt.Sprintf("%s  %-8s  %s", ts, kind, evt.Payload)
	}
}

// summarizeContent reduces a full log snapshot to its size and newest line,
// which is usually the chat entry that triggered the update.
func summarizeContent(content string) string {
	size := len(content)
	last := ""
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			last = trimmed
		}
	}
	const maxLine = 120
	if len(last) > maxLine {
		last = last[:maxLine] + "..."
	}
	if last == "" {
		return fmt.Sprintf("(%d bytes)", size)
	}
	return fmt.Sprintf("(%d bytes) %s", size, last)
}
