package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"vidsnatch/types"
)

const pollInterval = time.Second

// --- get ---

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Submit a download",
	Long: `Submit a download to the running service.

Examples:
  vidsnatch get https://youtu.be/dQw4w9WgXcQ
  vidsnatch get https://example.com/video --title "My video" --wait`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		wait, _ := cmd.Flags().GetBool("wait")
		openFolder, _ := cmd.Flags().GetBool("open-folder")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.Submit(cmd.Context(), types.SubmitRequest{URL: args[0], Title: title, OpenFolder: openFolder})
		if err != nil {
			return err
		}
		if resp.IsDuplicate {
			printWarning("%s", resp.Message)
			printField(os.Stderr, "Existing download", resp.ExistingDownloadID)
			fmt.Fprintf(os.Stderr, "  run `vidsnatch retry %s` to try again\n", resp.ExistingDownloadID)
			return nil
		}

		printSuccess("Queued download %s", resp.DownloadID)
		if !wait {
			return nil
		}
		return waitForDownload(cmd.Context(), client, resp.DownloadID)
	},
}

func init() {
	getCmd.Flags().String("title", "", "title to use instead of the one the site reports")
	getCmd.Flags().Bool("wait", false, "show progress until the download finishes")
	getCmd.Flags().Bool("open-folder", false, "ask the service to open the folder when done")
}

// waitForDownload polls a job and renders a progress bar until it ends
func waitForDownload(ctx context.Context, client *apiClient, id string) error {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("preparing"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionEnableColorCodes(!noColor),
	)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		p, err := client.Progress(ctx, id)
		if err != nil {
			return err
		}

		desc := string(p.Status)
		if p.Queued {
			desc = "queued"
		}
		if p.Speed != "" {
			desc += " " + p.Speed
		}
		bar.Describe(desc)
		_ = bar.Set(int(p.Percent))

		switch p.Status {
		case types.JobStatusCompleted:
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
			printSuccess("Downloaded %s", p.Title)
			return nil
		case types.JobStatusCancelled:
			fmt.Fprintln(os.Stderr)
			printWarning("Download cancelled")
			return nil
		case types.JobStatusFailed, types.JobStatusError:
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("download failed: %s", p.Error)
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Show one download or list all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			p, err := client.Progress(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printProgress(os.Stdout, p)
			return nil
		}

		downloads, err := client.List(cmd.Context())
		if err != nil {
			return err
		}
		printDownloads(os.Stdout, downloads)
		return nil
	},
}

// --- cancel / retry / delete / clear ---

var cancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a running download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.Cancel(cmd.Context(), args[0]); err != nil {
			return err
		}
		printSuccess("Cancellation requested for %s", args[0])
		return nil
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Retry a failed or cancelled download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, _ := cmd.Flags().GetBool("wait")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.Retry(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSuccess("%s (download %s)", resp.Message, resp.DownloadID)
		if wait {
			return waitForDownload(cmd.Context(), client, resp.DownloadID)
		}
		return nil
	},
}

func init() {
	retryCmd.Flags().Bool("wait", false, "show progress until the download finishes")
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a download and its partial files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		removed, err := client.Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSuccess("Deleted %s", args[0])
		for _, name := range removed {
			fmt.Fprintln(os.Stderr, render(mutedStyle, "  removed "+name))
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Remove a finished download from the list, keeping files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.Clear(cmd.Context(), args[0]); err != nil {
			return err
		}
		printSuccess("Cleared %s", args[0])
		return nil
	},
}

// --- resolve ---

var resolveCmd = &cobra.Command{
	Use:   "resolve <filename>",
	Short: "Find the download a partial file belongs to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		match, err := client.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !match.Found {
			printWarning("No matching download found for %s", args[0])
			return nil
		}
		fmt.Fprintln(os.Stdout, render(titleStyle, match.Title))
		printField(os.Stdout, "Source", string(match.Source))
		printField(os.Stdout, "ID", match.ID)
		printField(os.Stdout, "URL", match.URL)
		printField(os.Stdout, "Similarity", fmt.Sprintf("%.2f", match.Similarity))
		return nil
	},
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show every URL ever submitted",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		query, _ := cmd.Flags().GetString("query")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		entries, err := client.History(cmd.Context(), status, query)
		if err != nil {
			return err
		}
		printHistory(os.Stdout, entries)
		return nil
	},
}

func init() {
	historyCmd.Flags().String("status", "", "only entries with this status (pending, downloading, completed, failed)")
	historyCmd.Flags().StringP("query", "q", "", "fuzzy filter on title or URL")
}
