package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/starrain-dev/botctl/pkg/logstore"
)

func logsCmd() *cobra.Command {
	var lines int
	var archiveBucket string
	var archiveRegion string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Retrieve recent bot log lines",
		Long: `Retrieve recent log lines from the controller's buffer.

With --archive-bucket the batch is also uploaded to S3 (credentials from
the standard AWS environment variables), keeping history beyond the
controller's in-memory window.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := newClient(cfg)

			logs, err := client.Logs(cmd.Context(), lines)
			if err != nil {
				return err
			}
			for _, line := range logs {
				fmt.Println(line)
			}

			bucket := archiveBucket
			region := archiveRegion
			if bucket == "" {
				bucket = cfg.Archive.Bucket
			}
			if region == "" {
				region = cfg.Archive.Region
			}
			if bucket == "" {
				return nil
			}
			if region == "" {
				region = "us-east-1"
			}

			store := logstore.NewS3Store(logstore.NewS3Client(region), bucket, cfg.Archive.Prefix)
			key, err := store.Archive(cmd.Context(), logs)
			if err != nil {
				warn("archive failed: %v", err)
				return nil
			}
			success("archived %d lines to s3://%s/%s", len(logs), bucket, key)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "Number of log lines to retrieve (max 500)")
	cmd.Flags().StringVar(&archiveBucket, "archive-bucket", "", "S3 bucket to archive the batch to")
	cmd.Flags().StringVar(&archiveRegion, "archive-region", "", "AWS region of the archive bucket")

	return cmd
}
