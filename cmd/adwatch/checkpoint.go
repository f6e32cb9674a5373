package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/AdWatch/internal/database"
	"github.com/TobiSchelling/AdWatch/internal/fingerprint"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect and edit the set of processed posts",
}

var checkpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List processed posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		set, err := db.LoadCheckpoint()
		if err != nil {
			return err
		}
		if set.Len() == 0 {
			fmt.Println("No posts processed yet.")
			return nil
		}
		for _, e := range set.Entries() {
			fmt.Printf("  %s  %s  %s\n", e.ProcessedAt.Local().Format(time.DateTime), e.Fingerprint[:12], e.URL)
		}
		return nil
	},
}

var checkpointForgetCmd = &cobra.Command{
	Use:   "forget [url]",
	Short: "Forget a post so the next run processes it again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		set, err := db.LoadCheckpoint()
		if err != nil {
			return err
		}
		if !set.Remove(fingerprint.Of(args[0])) {
			return fmt.Errorf("post not in checkpoint: %s", args[0])
		}
		if err := db.SaveCheckpoint(set); err != nil {
			return err
		}
		fmt.Printf("Forgot %s\n", fingerprint.Canonical(args[0]))
		return nil
	},
}

var checkpointImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a legacy lastPost.json checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading legacy checkpoint: %w", err)
		}
		entries, skipped, err := database.ParseLegacyCheckpoint(data, time.Now())
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		set, err := db.LoadCheckpoint()
		if err != nil {
			return err
		}
		added := set.Merge(entries)
		if err := db.SaveCheckpoint(set); err != nil {
			return err
		}

		fmt.Printf("Imported %d new posts (%d already known).\n", added, len(entries)-added)
		if skipped > 0 {
			fmt.Printf("Skipped %d entries without a URL.\n", skipped)
		}
		return nil
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointListCmd)
	checkpointCmd.AddCommand(checkpointForgetCmd)
	checkpointCmd.AddCommand(checkpointImportCmd)
}
