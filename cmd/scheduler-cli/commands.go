package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/training-center-api/internal/dto"
)

var (
	expandDays      string
	expandTotal     int
	expandStart     string
	expandSlots     string
	expandDryRun    bool
	resourcePattern string
	forceAssign     bool
	exportFormat    string
	exportOutput    string
	timeSlotPattern string
)

var expandCmd = &cobra.Command{
	Use:   "expand <class-id>",
	Short: "Expand a weekday pattern into dated class sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classID, err := classIDArg(args)
		if err != nil {
			return err
		}
		days, err := parseWeekdays(expandDays)
		if err != nil {
			return err
		}
		req := dto.GenerateSessionsRequest{StartDate: expandStart, DaysOfWeek: days, TotalSessions: expandTotal}
		if expandSlots != "" {
			pairs, err := parseDayPairs(expandSlots)
			if err != nil {
				return err
			}
			req.TimeSlots = timeSlotEntries(pairs)
		}

		svc := container.Sessions
		var resp *dto.GenerateSessionsResponse
		if expandDryRun {
			resp, err = svc.Preview(cmd.Context(), classID, req)
		} else {
			resp, err = svc.Generate(cmd.Context(), classID, req, cliActor())
		}
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <class-id>",
	Short: "Show which sessions would conflict under a resource pattern",
	Long: `Evaluate a weekday resource pattern without binding anything.
With --format the report is rendered as CSV or PDF to --output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classID, req, err := resourceRequest(args)
		if err != nil {
			return err
		}
		svc := container.Resources
		if exportFormat == "" {
			resp, err := svc.PreviewConflicts(cmd.Context(), classID, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}

		file, err := svc.ExportConflicts(cmd.Context(), classID, req, dto.ExportFormat(exportFormat))
		if err != nil {
			return err
		}
		target := exportOutput
		if target == "" {
			target = file.Filename
		}
		if err := os.WriteFile(target, file.Body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)
		return nil
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Bind resources or time slot templates to a class's sessions",
}

var assignResourcesCmd = &cobra.Command{
	Use:   "resources <class-id>",
	Short: "Assign resources per weekday, skipping conflicting sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classID, req, err := resourceRequest(args)
		if err != nil {
			return err
		}
		req.SkipConflictCheck = forceAssign
		resp, err := container.Resources.AssignResources(cmd.Context(), classID, req, cliActor())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var assignTimeSlotsCmd = &cobra.Command{
	Use:   "time-slots <class-id>",
	Short: "Assign time slot templates per weekday to planned sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classID, err := classIDArg(args)
		if err != nil {
			return err
		}
		pairs, err := parseDayPairs(timeSlotPattern)
		if err != nil {
			return err
		}
		req := dto.AssignTimeSlotsRequest{Assignments: timeSlotEntries(pairs)}
		resp, err := container.TimeSlots.AssignTimeSlots(cmd.Context(), classID, req, cliActor())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	expandCmd.Flags().StringVar(&expandDays, "days", "", "weekdays to hold sessions on, 0=Sunday (e.g. 1,3)")
	expandCmd.Flags().IntVar(&expandTotal, "total", 0, "number of sessions; defaults to the subject curriculum")
	expandCmd.Flags().StringVar(&expandStart, "start", "", "first date (YYYY-MM-DD); defaults to the class start date")
	expandCmd.Flags().StringVar(&expandSlots, "slots", "", "time slot template per weekday (e.g. 1=5,3=6)")
	expandCmd.Flags().BoolVar(&expandDryRun, "dry-run", false, "print the expansion without persisting it")
	_ = expandCmd.MarkFlagRequired("days")

	previewCmd.Flags().StringVar(&resourcePattern, "pattern", "", "resource per weekday (e.g. 1=101,3=102)")
	previewCmd.Flags().StringVar(&exportFormat, "format", "", "export format: csv or pdf")
	previewCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "export file path")
	_ = previewCmd.MarkFlagRequired("pattern")

	assignResourcesCmd.Flags().StringVar(&resourcePattern, "pattern", "", "resource per weekday (e.g. 1=101,3=102)")
	assignResourcesCmd.Flags().BoolVar(&forceAssign, "force", false, "bind every session and skip conflict checks")
	_ = assignResourcesCmd.MarkFlagRequired("pattern")

	assignTimeSlotsCmd.Flags().StringVar(&timeSlotPattern, "pattern", "", "time slot template per weekday (e.g. 1=5,3=6)")
	_ = assignTimeSlotsCmd.MarkFlagRequired("pattern")

	assignCmd.AddCommand(assignResourcesCmd, assignTimeSlotsCmd)
}

func resourceRequest(args []string) (int64, dto.AssignResourcesRequest, error) {
	classID, err := classIDArg(args)
	if err != nil {
		return 0, dto.AssignResourcesRequest{}, err
	}
	pairs, err := parseDayPairs(resourcePattern)
	if err != nil {
		return 0, dto.AssignResourcesRequest{}, err
	}
	req := dto.AssignResourcesRequest{Pattern: make([]dto.ResourcePatternEntry, 0, len(pairs))}
	for _, p := range pairs {
		req.Pattern = append(req.Pattern, dto.ResourcePatternEntry{DayOfWeek: int(p[0]), ResourceID: p[1]})
	}
	return classID, req, nil
}

func timeSlotEntries(pairs [][2]int64) []dto.TimeSlotPatternEntry {
	entries := make([]dto.TimeSlotPatternEntry, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, dto.TimeSlotPatternEntry{DayOfWeek: int(p[0]), TimeSlotTemplateID: p[1]})
	}
	return entries
}

func parseWeekdays(raw string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid weekday %q", part)
		}
		days = append(days, day)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("at least one weekday is required")
	}
	return days, nil
}
