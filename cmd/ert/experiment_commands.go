package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newExperimentCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Manage experiments and inspect their records",
	}
	cmd.AddCommand(newExperimentInitCommand(ctx))
	cmd.AddCommand(newExperimentListCommand(ctx))
	cmd.AddCommand(newExperimentRecordsCommand(ctx))
	cmd.AddCommand(newExperimentDeleteCommand(ctx))
	return cmd
}

func newExperimentInitCommand(ctx *commandContext) *cobra.Command {
	var (
		parameters   []string
		responses    []string
		ensembleSize int
	)
	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Register a new experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := store.InitExperiment(cmd.Context(), args[0], parameters, responses, ensembleSize); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized experiment %q (ensemble size %d)\n", args[0], ensembleSize)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&parameters, "parameter", nil, "Parameter record name (repeatable)")
	cmd.Flags().StringSliceVar(&responses, "response", nil, "Response record name (repeatable)")
	cmd.Flags().IntVar(&ensembleSize, "size", 1, "Ensemble size")
	return cmd
}

func newExperimentListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered experiments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			names, err := store.ExperimentNames(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No experiments registered.")
				return nil
			}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				size, err := store.EnsembleSize(cmd.Context(), name)
				if err != nil {
					return err
				}
				rows = append(rows, []string{name, strconv.Itoa(size)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Experiment", "Ensemble Size"}, rows,
				[]columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func newExperimentRecordsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "records <experiment>",
		Short: "List records transmitted under an experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			names, err := store.EnsembleRecordNames(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records transmitted.")
				return nil
			}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				meta, err := store.RecordMetadata(cmd.Context(), args[0], name)
				if err != nil {
					return err
				}
				kind := meta.Mime
				if meta.IsDirectory {
					kind = "directory"
				}
				rows = append(rows, []string{name, kind, memberSummary(meta.Members), meta.Source})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Record", "Type", "Members", "Source"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
}

func newExperimentDeleteCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <experiment>",
		Short: "Delete an experiment and every record stored under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete experiment %q without --yes", args[0])
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := store.DeleteExperiment(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted experiment %q\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func memberSummary(members []int) string {
	if len(members) == 0 {
		return "0"
	}
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = strconv.Itoa(m)
	}
	return fmt.Sprintf("%d (%s)", len(members), strings.Join(parts, ","))
}
