package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/store"
)

var (
	sessionsTenant    string
	sessionsCandidate string
	sessionsStatus    string
	sessionsLimit     int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent enrichment sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sessions, err := st.ListSessions(ctx, store.SessionFilter{
			TenantID:    sessionsTenant,
			CandidateID: sessionsCandidate,
			Status:      model.SessionStatus(sessionsStatus),
			Limit:       sessionsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list sessions")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsTenant, "tenant", "", "filter by tenant ID")
	sessionsCmd.Flags().StringVar(&sessionsCandidate, "candidate", "", "filter by candidate ID")
	sessionsCmd.Flags().StringVar(&sessionsStatus, "status", "", "filter by status (queued|running|completed|failed|cancelled)")
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "maximum sessions to return")
	rootCmd.AddCommand(sessionsCmd)
}
