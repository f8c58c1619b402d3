package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kedhare/gallery-cli/internal/api"
	"github.com/kedhare/gallery-cli/internal/bulk"
	"github.com/kedhare/gallery-cli/internal/history"
	"github.com/kedhare/gallery-cli/internal/session"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(newUsersImportCmd())
	cmd.AddCommand(newUsersLsCmd())
	cmd.AddCommand(newUsersUpdateCmd())
	cmd.AddCommand(newUsersRmCmd())
	cmd.AddCommand(newUsersHistoryCmd())

	return cmd
}

// batchSubmitter adapts the API client to the pipeline's Submitter.
type batchSubmitter struct {
	client *api.Client
}

func (s *batchSubmitter) Submit(ctx context.Context, candidates []bulk.Candidate) (int, error) {
	users := make([]api.NewUser, len(candidates))
	for i, c := range candidates {
		users[i] = api.NewUser{
			Username: c.Username,
			Email:    c.Email,
			Password: c.Password,
			Phone:    c.Phone,
			Role:     c.Role,
		}
	}

	return s.client.BulkCreateUsers(ctx, users)
}

func newUsersImportCmd() *cobra.Command {
	var (
		watchDir   string
		settleSecs int
		noHistory  bool
	)

	cmd := &cobra.Command{
		Use:   "import [file.xlsx|file.csv]",
		Short: "Provision accounts in bulk from a spreadsheet",
		Long: "Parses a spreadsheet with username, phone, email, and password columns,\n" +
			"validates every row, and submits the batch only when no row has a\n" +
			"violation. With --watch, imports every spreadsheet dropped into a directory.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runUsersImport(args, watchDir, time.Duration(settleSecs)*time.Second, noHistory)
		},
	}

	cmd.Flags().StringVar(&watchDir, "watch", "", "watch a drop directory instead of importing one file")
	cmd.Flags().IntVar(&settleSecs, "settle", 2, "seconds to wait for a dropped file to finish writing")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "skip recording the run in the local history")

	return cmd
}

func runUsersImport(args []string, watchDir string, settle time.Duration, noHistory bool) error {
	if watchDir == "" && len(args) == 0 {
		return fmt.Errorf("provide a spreadsheet file or --watch <dir>")
	}

	logger := buildLogger()
	client, _ := buildClient(logger)
	ctx := context.Background()

	var recorder bulk.Recorder

	if !noHistory {
		store, err := history.Open(ctx, resolvedCfg.HistoryDBPath(), logger)
		if err != nil {
			return err
		}
		defer store.Close()

		recorder = store
	}

	pipeline := bulk.NewPipeline(&batchSubmitter{client: client}, recorder, func(stage bulk.Stage) {
		progressf("import", stage.Percent())
	}, logger)

	if watchDir != "" {
		watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		statusf("Watching %s for spreadsheets. Ctrl-C to stop.\n", watchDir)

		return pipeline.Watch(watchCtx, watchDir, settle, func(path string, result *bulk.Result, err error) {
			reportImport(result, err)
		})
	}

	result, err := pipeline.Run(ctx, args[0])
	reportImport(result, err)

	if err != nil {
		return err
	}

	if len(result.Violations) > 0 {
		return fmt.Errorf("%d validation error(s), batch not submitted", len(result.Violations))
	}

	return nil
}

// reportImport prints one run's outcome without deciding exit status —
// watch mode keeps going after failures.
func reportImport(result *bulk.Result, err error) {
	if err != nil {
		statusf("Import failed: %v\n", err)
		return
	}

	if len(result.Violations) > 0 {
		statusf("Validation errors:\n")

		for _, v := range result.Violations {
			statusf("  %s\n", v)
		}

		return
	}

	statusf("Successfully registered %d users\n", result.Created)
}

func newUsersLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List users",
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			users, err := client.ListUsers(context.Background())
			if err != nil {
				return err
			}

			if flagJSON {
				return json.NewEncoder(os.Stdout).Encode(users)
			}

			rows := make([][]string, len(users))
			for i, u := range users {
				rows[i] = []string{u.ID, u.Username, u.Email, u.Phone, string(u.Role)}
			}

			printTable(os.Stdout, []string{"ID", "USERNAME", "EMAIL", "PHONE", "ROLE"}, rows)

			return nil
		},
	}
}

func newUsersUpdateCmd() *cobra.Command {
	var username, email, role string

	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Update a user's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			update := api.UserUpdate{
				Username: username,
				Email:    email,
				Role:     session.Role(role),
			}

			if err := client.UpdateUser(context.Background(), args[0], update); err != nil {
				return err
			}

			statusf("User updated.\n")

			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "new username")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().StringVar(&role, "role", "", "new role (admin or user)")

	return cmd
}

func newUsersRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			if err := client.DeleteUser(context.Background(), args[0]); err != nil {
				return err
			}

			statusf("User removed.\n")

			return nil
		},
	}
}

func newUsersHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent bulk import runs",
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := buildLogger()
			ctx := context.Background()

			store, err := history.Open(ctx, resolvedCfg.HistoryDBPath(), logger)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}

			if flagJSON {
				return json.NewEncoder(os.Stdout).Encode(runs)
			}

			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					formatTime(r.StartedAt),
					r.File,
					r.State,
					strconv.Itoa(r.Rows),
					strconv.Itoa(r.Violations),
					strconv.Itoa(r.Created),
				}
			}

			printTable(os.Stdout, []string{"STARTED", "FILE", "STATE", "ROWS", "VIOLATIONS", "CREATED"}, rows)

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")

	return cmd
}
