package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"subsweep/internal/config"
	"subsweep/internal/gmail"
	"subsweep/internal/model"
	"subsweep/internal/scan"
	"subsweep/internal/subscriptions"
	"subsweep/internal/tui"
)

var configDir string

func main() {
	rootCmd := &cobra.Command{
		Use:           "subsweep",
		Short:         "Find and clean up email subscriptions",
		Long:          "subsweep scans a Gmail inbox for subscription mail, groups it by sender and helps you unsubscribe.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.DefaultDir(), "Directory holding config.yaml, client_secret.json and the database")

	rootCmd.AddCommand(scanCmd(), listCmd(), unsubscribeCmd(), statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := newApp(configDir)
	if err != nil {
		return err
	}
	defer a.Close()

	appModel := tui.NewAppModel(tui.Options{
		Store: a.store,
		Connect: func(ctx context.Context, authURLs chan<- string, codes <-chan string) (tui.Mailbox, error) {
			c, err := a.connect(ctx, authURLs, codes)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		Open:   gmail.OpenUnsubscribeLink,
		Scan:   a.scanOptions(),
		Logger: a.logger,
	})
	p := tea.NewProgram(&appModel, tea.WithAltScreen())
	appModel.SetProgram(p)
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	if m, ok := finalModel.(*tui.AppModel); ok && m.Err != nil {
		return m.Err
	}
	return nil
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the inbox and store the consolidated subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := a.connect(ctx, nil, nil)
			if err != nil {
				return err
			}

			scanner := scan.NewScanner(client, a.store, a.scanOptions())
			out := cmd.ErrOrStderr()
			res, err := scanner.Run(ctx, func(p model.ScanProgress) {
				fmt.Fprintf(out, "\rScanning... %d / %d (%d%%)", p.Processed, p.Total, p.Percentage)
			})
			fmt.Fprintln(out)
			if err != nil {
				return err
			}

			st := subscriptions.ComputeStats(res.Subscriptions)
			fmt.Fprintf(cmd.OutOrStdout(), "Found %d subscriptions (newsletter %d, social %d, service %d, other %d)\n",
				st.Total, st.Newsletter, st.Social, st.Service, st.Other)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	var (
		format   string
		category string
		search   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the stored subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			recs, err := a.store.LoadSubscriptions(cmd.Context())
			if err != nil {
				return err
			}
			recs = subscriptions.Filter(recs, model.Category(category), search)
			return writeRecords(cmd.OutOrStdout(), recs, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	cmd.Flags().StringVar(&category, "category", "", "Only show this category (newsletter, social, service, other)")
	cmd.Flags().StringVar(&search, "search", "", "Only show records whose sender, subject or category contains this")
	return cmd
}

func unsubscribeCmd() *cobra.Command {
	var trash bool
	cmd := &cobra.Command{
		Use:   "unsubscribe <id>...",
		Short: "Open unsubscribe links (or trash the mail) for the given records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			recs, err := a.store.LoadSubscriptions(ctx)
			if err != nil {
				return err
			}

			mode := subscriptions.ModeOpen
			var trasher subscriptions.Trasher
			if trash {
				mode = subscriptions.ModeTrash
				client, err := a.connect(ctx, nil, nil)
				if err != nil {
					return err
				}
				trasher = client
			}

			action := subscriptions.NewAction(gmail.OpenUnsubscribeLink, trasher, a.store, a.logger.WithPrefix("unsubscribe"))
			out, err := action.Apply(ctx, recs, args, mode)
			w := cmd.OutOrStdout()
			for _, id := range out.Acted {
				fmt.Fprintf(w, "%s\t%s\n", id, mode)
			}
			for _, id := range out.NoLink {
				fmt.Fprintf(w, "%s\tno unsubscribe link\n", id)
			}
			for id, ferr := range out.Failed {
				fmt.Fprintf(w, "%s\tfailed: %v\n", id, ferr)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&trash, "trash", false, "Move the subscription's messages to trash instead of opening the link")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show how many subscriptions are stored and when the last scan ran",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			count, err := a.store.CountSubscriptions(ctx)
			if err != nil {
				return fmt.Errorf("count subscriptions: %w", err)
			}
			last, ok, err := a.store.LastScan(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Subscriptions: %d\n", count)
			if !ok {
				fmt.Fprintln(w, "Last scan: never")
				return nil
			}
			fmt.Fprintf(w, "Last scan: %s\n", last.Local().Format(time.RFC1123))
			return nil
		},
	}
}
