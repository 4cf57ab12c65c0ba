package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gitsyncd/gitsyncd/internal/api"
	"github.com/spf13/cobra"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show the latest working-copy health report",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient()
		resp, err := client.Get("/api/v1/health")
		if err != nil {
			return fmt.Errorf("error fetching health: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return CheckResponse(resp)
		}

		var apiResp struct {
			Data api.HealthSnapshot `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return fmt.Errorf("error decoding response: %v", err)
		}

		PrintJSON(apiResp.Data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
