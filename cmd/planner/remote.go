package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/ingest"
	"github.com/joseph-ayodele/venue-planner/internal/server"
	"github.com/joseph-ayodele/venue-planner/internal/view"
)

var query view.Query

var uploadCmd = &cobra.Command{
	Use:     "upload <venues|vendors> <file>...",
	GroupID: "remote",
	Short:   "Queue documents for extraction",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &server.UploadRequest{Kind: args[0]}
		for _, path := range args[1:] {
			f, err := ingest.ReadPath(path)
			if err != nil {
				return err
			}
			req.Files = append(req.Files, server.UploadFile{Name: f.Name, Data: f.Data})
		}
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			resp, err := c.Upload(ctx, req)
			if err != nil {
				return err
			}
			for i, id := range resp.JobIDs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, req.Files[i].Name)
			}
			return nil
		})
	},
}

var jobsCmd = &cobra.Command{
	Use:     "jobs <venues|vendors>",
	GroupID: "remote",
	Short:   "Show the upload queue",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			resp, err := c.ListJobs(ctx, &server.ListJobsRequest{Kind: args[0]})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFILE\tSTATUS\tRECORDS\tERROR")
			for _, j := range resp.Jobs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", j.ID, j.File.Name, j.Status, j.ResultCount, j.Error)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			s := resp.Stats
			fmt.Fprintf(cmd.OutOrStdout(), "queued %d, processing %d, succeeded %d, failed %d, complete %t\n",
				s.Queued, s.Processing, s.Succeeded, s.Failed, s.Complete)
			return nil
		})
	},
}

var removeJobCmd = &cobra.Command{
	Use:     "remove-job <venues|vendors> <job-id>",
	GroupID: "remote",
	Short:   "Remove a queued job",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			return c.RemoveJob(ctx, &server.JobRequest{Kind: args[0], JobID: args[1]})
		})
	},
}

var resetCmd = &cobra.Command{
	Use:     "reset <venues|vendors>",
	GroupID: "remote",
	Short:   "Clear a finished upload queue",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			return c.ResetQueue(ctx, &server.ResetQueueRequest{Kind: args[0]})
		})
	},
}

var venuesCmd = &cobra.Command{
	Use:     "venues",
	GroupID: "remote",
	Short:   "List venues",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			resp, err := c.ListVenues(ctx, &server.ListRequest{Query: query})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCAPACITY\tEST. COST\tLOCATION")
			for _, v := range resp.Venues {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%s\n",
					v.ID, v.Name, v.Status, v.Capacity, v.EstimatedCost(query.Guests), v.Location)
			}
			return w.Flush()
		})
	},
}

var vendorsCmd = &cobra.Command{
	Use:     "vendors",
	GroupID: "remote",
	Short:   "List vendors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			resp, err := c.ListVendors(ctx, &server.ListRequest{Query: query})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSTATUS\tPRICE")
			for _, v := range resp.Vendors {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\n", v.ID, v.Name, v.Category, v.Status, v.Price)
			}
			return w.Flush()
		})
	},
}

var setStatusCmd = &cobra.Command{
	Use:     "set-status <venue|vendor> <id> <unseen|maybe|priority|rejected>",
	GroupID: "remote",
	Short:   "Triage a record",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			return c.SetStatus(ctx, &server.SetStatusRequest{
				Kind: args[0], ID: args[1], Status: constants.ConsiderationStatus(args[2]),
			})
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <venue|vendor> <id>",
	GroupID: "remote",
	Short:   "Delete a record",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			return c.Delete(ctx, &server.DeleteRequest{Kind: args[0], ID: args[1]})
		})
	},
}

var saveCmd = &cobra.Command{
	Use:     "save <venue|vendor> <json-file>",
	GroupID: "remote",
	Short:   "Add or edit a record from a JSON file",
	Long: `The file holds the record fields. An "id" field edits that record,
otherwise a new one is added with manual provenance.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := entity.ParseKind(args[0])
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			if kind == entity.KindVenue {
				var in struct {
					ID     string                        `json:"id"`
					Status constants.ConsiderationStatus `json:"status"`
					entity.VenueFields
				}
				if err := json.Unmarshal(data, &in); err != nil {
					return err
				}
				v, err := c.SaveVenue(ctx, &server.SaveVenueRequest{ID: in.ID, Fields: in.VenueFields, Status: in.Status})
				if err != nil {
					return err
				}
				return printJSON(cmd, v)
			}
			var in struct {
				ID     string                        `json:"id"`
				Status constants.ConsiderationStatus `json:"status"`
				entity.VendorFields
			}
			if err := json.Unmarshal(data, &in); err != nil {
				return err
			}
			v, err := c.SaveVendor(ctx, &server.SaveVendorRequest{ID: in.ID, Fields: in.VendorFields, Status: in.Status})
			if err != nil {
				return err
			}
			return printJSON(cmd, v)
		})
	},
}

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:     "export [venues|vendors]",
	GroupID: "remote",
	Short:   "Download a CSV or XLSX export; no kind exports both as one workbook",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &server.ExportRequest{Format: exportFormat}
		if len(args) == 1 {
			req.Kind = args[0]
		}
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			resp, err := c.Export(ctx, req)
			if err != nil {
				return err
			}
			out := exportOut
			if out == "" {
				out = resp.FileName
			}
			if err := os.WriteFile(out, resp.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", resp.Rows, filepath.Clean(out))
			return nil
		})
	},
}

var summaryGuests int

var summaryCmd = &cobra.Command{
	Use:     "summary",
	GroupID: "remote",
	Short:   "Show counts, cost ranges and the budget estimate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			sum, err := c.Summary(ctx, &server.SummaryRequest{Guests: summaryGuests})
			if err != nil {
				return err
			}
			return printJSON(cmd, sum)
		})
	},
}

var syncStatusCmd = &cobra.Command{
	Use:     "sync-status",
	GroupID: "remote",
	Short:   "Show the remote sync connection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			resp, err := c.SyncStatus(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp.Status)
		})
	},
}

var reconnectCmd = &cobra.Command{
	Use:     "reconnect",
	GroupID: "remote",
	Short:   "Retry the remote sync connection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			resp, err := c.Reconnect(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp.Status)
		})
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	GroupID: "remote",
	Short:   "Check plannerd through the gRPC health service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd, func(ctx context.Context, c *server.Client) error {
			st, err := c.Health(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.String())
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{venuesCmd, vendorsCmd} {
		c.Flags().StringVar((*string)(&query.Status), "status", "", "filter by status")
		c.Flags().StringVar(&query.Search, "search", "", "case-insensitive text filter")
		c.Flags().StringVar(&query.SortBy, "sort", "", "sort key")
		c.Flags().BoolVar(&query.Desc, "desc", false, "reverse the sort")
	}
	venuesCmd.Flags().IntVar(&query.Guests, "guests", 0, "guest count for cost estimates")
	vendorsCmd.Flags().StringVar(&query.Category, "category", "", "filter by category")

	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default: server file name)")
	summaryCmd.Flags().IntVar(&summaryGuests, "guests", 0, "guest count for cost estimates")

	rootCmd.AddCommand(uploadCmd, jobsCmd, removeJobCmd, resetCmd, venuesCmd, vendorsCmd,
		setStatusCmd, deleteCmd, saveCmd, exportCmd, summaryCmd, syncStatusCmd, reconnectCmd, healthCmd)
}
