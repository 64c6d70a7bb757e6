package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/venue-planner/internal/app"
	"github.com/joseph-ayodele/venue-planner/internal/common"
	"github.com/joseph-ayodele/venue-planner/internal/document"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/ingest"
	"github.com/joseph-ayodele/venue-planner/internal/ocr"
	"github.com/joseph-ayodele/venue-planner/internal/planner"
	"github.com/joseph-ayodele/venue-planner/internal/state"
)

// batchWaiter collects merged batches from the planner.
type batchWaiter chan planner.BatchEvent

func (b batchWaiter) Publish(_ string, payload any) {
	if ev, ok := payload.(planner.BatchEvent); ok {
		b <- ev
	}
}

var (
	batchOut  string
	batchWait time.Duration
)

var batchCmd = &cobra.Command{
	Use:     "batch <venues|vendors> <dir>",
	GroupID: "local",
	Short:   "Extract every document in a directory into the local store and export a workbook",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := entity.ParseKind(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, closer := common.NewLogger(cfg.Log)
		defer closer.Close()
		ctx := cmd.Context()

		results, stats, err := ingest.ReadDirectory(args[1], true, logger)
		if err != nil {
			return err
		}
		var files []document.File
		for _, r := range results {
			if r.Err == "" {
				files = append(files, r.File)
			}
		}
		logger.Info("batch.scan", "dir", args[1], "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)
		if len(files) == 0 {
			return fmt.Errorf("no supported documents in %s", args[1])
		}

		local, closeLocal, err := app.OpenLocal(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeLocal()
		store := state.NewStore(local.Load(ctx), logger)
		store.Subscribe("persist", local.Subscriber())

		gen, err := app.NewGenerator(ctx, cfg.LLM, logger)
		if err != nil {
			return err
		}
		ex, err := app.NewExtractors(gen, cfg.LLM, cfg.OCR, logger)
		if err != nil {
			return err
		}
		waiter := make(batchWaiter, 1)
		svc := planner.New(store, ex.Venues, ex.Vendors,
			planner.WithLogger(logger),
			planner.WithNotifier(waiter),
			planner.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			svc.Shutdown(sctx)
		}()

		if _, err := svc.Upload(kind, files...); err != nil {
			return err
		}
		var ev planner.BatchEvent
		select {
		case ev = <-waiter:
		case <-time.After(batchWait):
			return fmt.Errorf("batch did not finish within %s", batchWait)
		case <-ctx.Done():
			return ctx.Err()
		}

		jobs, _, _ := svc.Jobs(kind)
		for _, j := range jobs {
			if j.Error != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %s\n", j.File.Name, j.Error)
			}
		}

		book, err := svc.Workbook()
		if err != nil {
			return err
		}
		out := batchOut
		if out == "" {
			out = filepath.Join(filepath.Dir(filepath.Clean(args[1])), book.FileName)
		}
		if err := os.WriteFile(out, book.Data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d files, %d records: %d added, %d updated, %d unchanged\nwrote %s\n",
			len(files), ev.Records, ev.Summary.Added, ev.Summary.Updated, ev.Summary.Unchanged, out)
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:     "extract <venue|vendor> <file>",
	GroupID: "local",
	Short:   "Run one document through the model and print the records without storing them",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := entity.ParseKind(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, closer := common.NewLogger(cfg.Log)
		defer closer.Close()

		f, err := ingest.ReadPath(args[1])
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Queue.ProcessTimeout)
		defer cancel()

		gen, err := app.NewGenerator(ctx, cfg.LLM, logger)
		if err != nil {
			return err
		}
		ex, err := app.NewExtractors(gen, cfg.LLM, cfg.OCR, logger)
		if err != nil {
			return err
		}
		start := time.Now()
		var out any
		if kind == entity.KindVenue {
			out, err = ex.Venues.Extract(ctx, f)
		} else {
			out, err = ex.Vendors.Extract(ctx, f)
		}
		if err != nil {
			return err
		}
		logger.Info("extract.done", "file", f.Name, "model", gen.Model(), "elapsed", time.Since(start))
		return printJSON(cmd, out)
	},
}

var pingCmd = &cobra.Command{
	Use:     "ping",
	GroupID: "local",
	Short:   "Check the configured remote sync backend",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.SyncEnabled() {
			return fmt.Errorf("remote sync is disabled (PLANNER_SYNC_BACKEND=%q)", cfg.Sync.Backend)
		}
		logger, closer := common.NewLogger(cfg.Log)
		defer closer.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		remote, cleanup, err := app.OpenRemote(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		if err := remote.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", remote.Name(), err)
		}
		_, err = remote.Get(ctx)
		switch {
		case err == nil:
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, document present\n", remote.Name())
		case planner.IsNotFound(err):
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, no document yet\n", remote.Name())
		default:
			return err
		}
		return nil
	},
}

var ocrCmd = &cobra.Command{
	Use:     "ocr <file>",
	GroupID: "local",
	Short:   "Print the text layer that would be sent alongside a PDF or image",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, closer := common.NewLogger(cfg.Log)
		defer closer.Close()

		f, err := ingest.ReadPath(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		res, err := ocr.NewExtractor(ocr.Config{
			Pdftotext: cfg.OCR.Pdftotext,
			Pdftoppm:  cfg.OCR.Pdftoppm,
			Tesseract: cfg.OCR.Tesseract,
			Lang:      cfg.OCR.Lang,
			DPI:       cfg.OCR.DPI,
			MaxPages:  cfg.OCR.MaxPages,
		}, logger).Extract(ctx, f)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d pages via %s in %s\n", f.Name, res.Pages, res.Method, res.Duration.Round(time.Millisecond))
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "workbook path (default: next to the directory)")
	batchCmd.Flags().DurationVar(&batchWait, "wait", 30*time.Minute, "give up after this long")
	rootCmd.AddCommand(batchCmd, extractCmd, ocrCmd, pingCmd)
}
