package main

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/model"
)

var importCSVPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import candidates from a CSV file",
	Long:  "Loads candidate rows (id, tenant_id, linkedin_slug, linkedin_url, serp_title, serp_snippet, role) into the store. Existing candidates are left untouched.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		cands, err := readCandidateCSV(importCSVPath)
		if err != nil {
			return err
		}

		inserted, err := st.BulkInsertCandidates(ctx, cands)
		if err != nil {
			return eris.Wrap(err, "bulk insert candidates")
		}

		zap.L().Info("import complete",
			zap.Int("rows", len(cands)),
			zap.Int64("inserted", inserted),
			zap.String("csv", importCSVPath))
		return nil
	},
}

// readCandidateCSV parses the candidate CSV. Column order is taken from
// the header row, so extra columns are ignored.
func readCandidateCSV(path string) ([]model.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open csv")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "read csv header")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"id", "tenant_id", "linkedin_slug"} {
		if _, ok := col[required]; !ok {
			return nil, eris.Errorf("csv missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var cands []model.Candidate
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "read csv line %d", line)
		}

		c := model.Candidate{
			ID:           field(row, "id"),
			TenantID:     field(row, "tenant_id"),
			LinkedInSlug: field(row, "linkedin_slug"),
			LinkedInURL:  field(row, "linkedin_url"),
			SERPTitle:    field(row, "serp_title"),
			SERPSnippet:  field(row, "serp_snippet"),
			Role:         model.RoleType(field(row, "role")),
		}
		if c.ID == "" || c.TenantID == "" || c.LinkedInSlug == "" {
			return nil, eris.Errorf("csv line %d: id, tenant_id, and linkedin_slug are required", line)
		}
		cands = append(cands, c)
	}
	if len(cands) == 0 {
		return nil, eris.New("csv contains no candidate rows")
	}
	return cands, nil
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file (required)")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
