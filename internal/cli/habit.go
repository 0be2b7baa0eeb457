package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewHabitCmd создаёт группу команд для управления привычками.
func NewHabitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Manage habits",
	}

	cmd.AddCommand(
		newHabitListCmd(clientFn, outputFn),
		newHabitShowCmd(clientFn, outputFn),
		newHabitCreateCmd(clientFn, outputFn),
		newHabitDeleteCmd(clientFn, outputFn),
		newHabitPublicCmd(clientFn, outputFn),
	)

	return cmd
}

var habitHeaders = []string{"ID", "TIME", "ACTION", "PLACE", "EVERY", "DURATION", "STATE"}

func habitRow(h HabitResponse) []string {
	every := "-"
	if h.Frequency != nil {
		every = strconv.Itoa(*h.Frequency) + "d"
	}
	return []string{
		h.ID,
		h.Time,
		h.Action,
		h.Place,
		every,
		strconv.Itoa(h.Duration) + "s",
		h.ReminderState,
	}
}

func habitFields(h HabitResponse) []Field {
	row := habitRow(h)
	reward := ""
	if h.Reward != nil {
		reward = *h.Reward
	}
	return []Field{
		{"ID", h.ID},
		{"Action", h.Action},
		{"Place", h.Place},
		{"Time", h.Time},
		{"Every", row[4]},
		{"Duration", row[5]},
		{"Pleasant", strconv.FormatBool(h.IsPleasant)},
		{"Public", strconv.FormatBool(h.IsPublic)},
		{"Related habit", h.RelatedHabit},
		{"Reward", reward},
		{"Last reminder", h.LastReminder},
		{"State", h.ReminderState},
	}
}

func addPageFlags(cmd *cobra.Command, opts *ListOpts) {
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Page size (server default if 0)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Page offset")
}

func newHabitListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your habits",
		RunE: func(cmd *cobra.Command, args []string) error {
			habits, err := clientFn().ListHabits(opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(habits))
			for i, h := range habits {
				rows[i] = habitRow(h)
			}

			outputFn().Print(habitHeaders, rows, habits)
			return nil
		},
	}

	addPageFlags(cmd, &opts)
	return cmd
}

func newHabitPublicCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListOpts

	cmd := &cobra.Command{
		Use:   "public",
		Short: "List public habits",
		RunE: func(cmd *cobra.Command, args []string) error {
			habits, err := clientFn().ListPublicHabits(opts)
			if err != nil {
				return err
			}

			headers := []string{"ID", "TIME", "ACTION", "PLACE", "PLEASANT"}
			rows := make([][]string, len(habits))
			for i, h := range habits {
				rows[i] = []string{h.ID, h.Time, h.Action, h.Place, strconv.FormatBool(h.IsPleasant)}
			}

			outputFn().Print(headers, rows, habits)
			return nil
		},
	}

	addPageFlags(cmd, &opts)
	return cmd
}

func newHabitShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show habit details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			habit, err := clientFn().GetHabit(args[0])
			if err != nil {
				return err
			}

			outputFn().Detail(habitFields(*habit), habit)
			return nil
		},
	}
}

func newHabitCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		req       CreateHabitRequest
		frequency int
		duration  int
		reward    string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a habit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("frequency") {
				req.Frequency = &frequency
			}
			if cmd.Flags().Changed("duration") {
				req.Duration = &duration
			}
			if cmd.Flags().Changed("reward") {
				req.Reward = &reward
			}

			habit, err := clientFn().CreateHabit(req)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Habit created: %s", habit.ID))
			out.Print(habitHeaders, [][]string{habitRow(*habit)}, habit)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Action, "action", "", "What to do (required)")
	cmd.Flags().StringVar(&req.Place, "place", "", "Where to do it (required)")
	cmd.Flags().StringVar(&req.Time, "time", "", "Time of day HH:MM (required)")
	cmd.Flags().IntVar(&frequency, "frequency", 1, "Repeat every N days (1-7)")
	cmd.Flags().IntVar(&duration, "duration", 60, "Duration in seconds (max 120)")
	cmd.Flags().BoolVar(&req.IsPleasant, "pleasant", false, "Mark as pleasant habit")
	cmd.Flags().BoolVar(&req.IsPublic, "public", false, "Show in public list")
	cmd.Flags().StringVar(&req.RelatedHabit, "related", "", "ID of related pleasant habit")
	cmd.Flags().StringVar(&reward, "reward", "", "Reward after completing")
	cmd.MarkFlagRequired("action")
	cmd.MarkFlagRequired("place")
	cmd.MarkFlagRequired("time")

	return cmd
}

func newHabitDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteHabit(args[0]); err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Habit deleted: %s", args[0]))
			return nil
		},
	}
}
