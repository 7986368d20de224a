package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mferrera/ert/internal/engine"
	"github.com/mferrera/ert/internal/record"
	"github.com/mferrera/ert/internal/sampling"
	"github.com/mferrera/ert/internal/storage"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Load, sample, transmit, and resolve records",
	}
	cmd.AddCommand(newRecordLoadCommand(ctx))
	cmd.AddCommand(newRecordSampleCommand(ctx))
	cmd.AddCommand(newRecordURLCommand(ctx))
	cmd.AddCommand(newRecordExportCommand(ctx))
	return cmd
}

func newRecordLoadCommand(ctx *commandContext) *cobra.Command {
	var (
		experiment  string
		mime        string
		isDirectory bool
	)
	cmd := &cobra.Command{
		Use:   "load <record-name> <path>",
		Short: "Load a file or directory and transmit it as a single-member collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := ctx.orchestrator()
			if err != nil {
				return err
			}
			name, path := args[0], args[1]
			if err := engine.LoadRecord(cmd.Context(), orch, experiment, name, path, mime, isDirectory); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transmitted record %q for experiment %q\n", name, experiment)
			return nil
		},
	}
	cmd.Flags().StringVar(&experiment, "experiment", "default", "Experiment the record belongs to")
	cmd.Flags().StringVar(&mime, "mime", record.MimeJSON, "Record mime type")
	cmd.Flags().BoolVar(&isDirectory, "is-directory", false, "Treat path as a directory record")
	return cmd
}

func newRecordSampleCommand(ctx *commandContext) *cobra.Command {
	var (
		experiment   string
		ensembleSize int
		group        sampling.GroupConfig
	)
	cmd := &cobra.Command{
		Use:   "sample <group-name> <record-name>",
		Short: "Sample a distribution into an ensemble-sized collection and transmit it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := ctx.orchestrator()
			if err != nil {
				return err
			}
			group.Name = args[0]
			params, err := sampling.NewParameters([]sampling.GroupConfig{group})
			if err != nil {
				return err
			}
			collection, err := engine.SampleRecord(params, group.Name, ensembleSize)
			if err != nil {
				return err
			}
			if err := orch.Transmit(cmd.Context(), collection, args[1], experiment, engine.SourceSampled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sampled and transmitted %d member(s) of %q for experiment %q\n",
				collection.Len(), args[1], experiment)
			return nil
		},
	}
	cmd.Flags().StringVar(&experiment, "experiment", "default", "Experiment the record belongs to")
	cmd.Flags().IntVar(&ensembleSize, "size", 1, "Ensemble size to sample")
	cmd.Flags().StringVar(&group.Distribution, "distribution", sampling.DistUniform, "Distribution kind (uniform, loguniform, normal, constant)")
	cmd.Flags().IntVar(&group.Size, "group-size", 1, "Values per record (1 samples scalars)")
	cmd.Flags().Float64Var(&group.Min, "min", 0, "Lower bound for uniform/loguniform")
	cmd.Flags().Float64Var(&group.Max, "max", 1, "Upper bound for uniform/loguniform")
	cmd.Flags().Float64Var(&group.Mean, "mean", 0, "Mean for normal")
	cmd.Flags().Float64Var(&group.StdDev, "std-dev", 1, "Standard deviation for normal")
	cmd.Flags().Float64Var(&group.Value, "value", 0, "Value for constant")
	cmd.Flags().Int64Var(&group.Seed, "seed", 0, "Seed for reproducible sampling (0 draws a fresh seed)")
	return cmd
}

func newRecordURLCommand(ctx *commandContext) *cobra.Command {
	var (
		experiment string
		member     int
	)
	cmd := &cobra.Command{
		Use:   "url <record-name>",
		Short: "Resolve a stored record to its location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if member >= 0 {
				location, err := store.RecordURL(cmd.Context(), storage.Key{
					Experiment: experiment,
					Name:       args[0],
					Member:     member,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), location)
				return nil
			}

			meta, err := store.RecordMetadata(cmd.Context(), experiment, args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(meta.Members))
			for _, m := range meta.Members {
				location, err := store.RecordURL(cmd.Context(), storage.Key{
					Experiment: experiment,
					Name:       args[0],
					Member:     m,
				})
				if err != nil {
					return err
				}
				rows = append(rows, []string{strconv.Itoa(m), location})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Member", "Location"}, rows, []columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}
	cmd.Flags().StringVar(&experiment, "experiment", "default", "Experiment the record belongs to")
	cmd.Flags().IntVar(&member, "member", -1, "Resolve one member only (default: all)")
	return cmd
}

func newRecordExportCommand(ctx *commandContext) *cobra.Command {
	var (
		experiment string
		member     int
	)
	cmd := &cobra.Command{
		Use:   "export <record-name> <path>",
		Short: "Load a stored record back and write it to disk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			rec, err := store.LoadRecord(cmd.Context(), storage.Key{
				Experiment: experiment,
				Name:       args[0],
				Member:     member,
			})
			if err != nil {
				return err
			}
			if err := record.SaveToFile(rec, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %q member %d to %s\n", args[0], member, args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&experiment, "experiment", "default", "Experiment the record belongs to")
	cmd.Flags().IntVar(&member, "member", 0, "Member index to export")
	return cmd
}
