package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/app"
	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/pkg/config"
	"github.com/noah-isme/training-center-api/pkg/logger"
)

var (
	actorID   string
	container *app.Container
)

var rootCmd = &cobra.Command{
	Use:   "scheduler-cli",
	Short: "Operate class sessions, resources and time slots from the terminal",
	Long: `scheduler-cli runs the same scheduling operations as the HTTP API
against the configured database. Results are printed as JSON.

Examples:
  scheduler-cli expand 42 --days 1,3 --total 12 --start 2025-01-06
  scheduler-cli preview 42 --pattern 1=101,3=102
  scheduler-cli assign resources 42 --pattern 1=101 --force
  scheduler-cli assign time-slots 42 --pattern 1=5,3=6`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logr, err := logger.New(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		container, err = app.NewContainer(cmd.Context(), cfg, logr)
		if err != nil {
			return err
		}
		logr.Debug("command start", zap.String("command", cmd.CommandPath()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", "scheduler-cli", "user id recorded in audit logs")
	rootCmd.AddCommand(expandCmd, previewCmd, assignCmd)
}

// closeContainer drains the audit queue. It runs even when a command fails.
func closeContainer() {
	if container == nil {
		return
	}
	container.Close()
	_ = container.Logger.Sync()
}

func cliActor() *models.Actor {
	return &models.Actor{UserID: actorID, Role: models.RoleAdmin, UserAgent: "scheduler-cli"}
}

func classIDArg(args []string) (int64, error) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid class id %q", args[0])
	}
	return id, nil
}

// parseDayPairs reads "day=id" pairs such as "1=101,3=102".
func parseDayPairs(raw string) ([][2]int64, error) {
	var pairs [][2]int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, id, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("pattern entry %q must look like day=id", part)
		}
		d, err := strconv.ParseInt(strings.TrimSpace(day), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("pattern entry %q: invalid day", part)
		}
		v, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("pattern entry %q: invalid id", part)
		}
		pairs = append(pairs, [2]int64{d, v})
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("pattern is empty")
	}
	return pairs, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
