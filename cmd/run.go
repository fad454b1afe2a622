package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"memorial/internal/config"
	"memorial/internal/database"
	"memorial/internal/engine"
	"memorial/internal/logger"
	"memorial/internal/metrics"
	"memorial/internal/source"
)

type runFlags struct {
	parcels  string
	streets  string
	others   string
	blocks   string
	out      string
	workers  int
	renumber bool
	db       bool
}

func newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve every parcel and write memorials, segments and failures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&f.parcels, "parcels", "", "parcel layer (.shp or .geojson)")
	cmd.Flags().StringVar(&f.streets, "streets", "", "street layer (.shp or .geojson)")
	cmd.Flags().StringVar(&f.others, "others", "", "other reference features")
	cmd.Flags().StringVar(&f.blocks, "blocks", "", "block outlines")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output directory")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel parcel workers (0 = all CPUs)")
	cmd.Flags().BoolVar(&f.renumber, "renumber", false, "renumber lots by polar angle around the block centroid")
	cmd.Flags().BoolVar(&f.db, "db", false, "also store the run in Oracle")
	return cmd
}

// apply overrides the configuration with the flags the user set.
func (f runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := &config.Config{
		Input: config.InputConfig{
			Parcels: f.parcels,
			Streets: f.streets,
			Others:  f.others,
			Blocks:  f.blocks,
		},
		Output: config.OutputConfig{Dir: f.out},
	}
	cfg.Merge(flags)

	set := cmd.Flags().Changed
	if set("workers") {
		cfg.Engine.Workers = f.workers
	}
	if set("renumber") {
		cfg.Engine.Renumber = f.renumber
	}
	if set("db") {
		cfg.Database.Enabled = f.db
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	start := time.Now()

	in, err := loadInput(cfg.Input)
	if err != nil {
		return err
	}
	log.Info("inputs loaded",
		"parcels", len(in.Parcels),
		"streets", len(in.Streets),
		"others", len(in.Others),
		"blocks", len(in.Blocks),
		"elapsed", time.Since(start).Truncate(time.Millisecond))

	eng, err := engine.New(cfg.Engine, cfg.Document, log)
	if err != nil {
		return err
	}
	out, err := eng.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if err := writeOutputs(cfg.Output.Dir, out, cfg.Document); err != nil {
		return err
	}

	if cfg.Database.Enabled {
		if err := store(ctx, cfg.Database.DBConfig, out); err != nil {
			return err
		}
		log.Info("run stored", "run", out.RunID, "host", cfg.Database.Host)
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return err
		}
	}

	fmt.Printf("%sRun %s%s: %d parcels described, %d failed, %d blocks -> %s\n",
		colorGreen, out.RunID, colorReset, len(out.Parcels), len(out.Failures), len(out.Blocks), cfg.Output.Dir)
	return nil
}

func loadInput(c config.InputConfig) (engine.Input, error) {
	var (
		in  engine.Input
		err error
	)
	if in.Parcels, err = source.ReadParcels(c.Parcels, c.Fields); err != nil {
		return in, err
	}
	if in.Streets, err = source.ReadFeatures(c.Streets, c.Fields); err != nil {
		return in, err
	}
	if c.Others != "" {
		if in.Others, err = source.ReadFeatures(c.Others, c.Fields); err != nil {
			return in, err
		}
	}
	if c.Blocks != "" {
		if in.Blocks, err = source.ReadBlocks(c.Blocks, c.Fields); err != nil {
			return in, err
		}
	}
	return in, nil
}

func store(ctx context.Context, c database.DBConfig, out *engine.Output) error {
	db, err := database.NewDatabase(ctx, c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	return db.SaveRun(ctx, database.Run{
		ID:       out.RunID,
		Parcels:  out.Parcels,
		Blocks:   out.Blocks,
		Failures: out.Failures,
	})
}
