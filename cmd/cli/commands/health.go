package commands

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func NewHealthCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query a running server's health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base := baseURL
			if base == "" {
				base = os.Getenv("BASE_URL")
			}
			if base == "" {
				base = "http://127.0.0.1:8080"
			}
			url := strings.TrimRight(base, "/") + "/api/health"

			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get(url)
			if err != nil {
				return fmt.Errorf("health check: %w", err)
			}
			defer resp.Body.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Health status:", resp.Status)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server reported %s", resp.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "Server base URL (default $BASE_URL or http://127.0.0.1:8080)")
	return cmd
}
