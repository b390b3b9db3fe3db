package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/model"
)

var (
	exportTenant    string
	exportCandidate string
	exportOutPath   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export identity candidates to an XLSX review workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		identities, err := st.ListIdentities(ctx, exportTenant, exportCandidate)
		if err != nil {
			return eris.Wrap(err, "list identities")
		}
		if len(identities) == 0 {
			return eris.Errorf("no identities stored for candidate %s", exportCandidate)
		}

		if err := writeIdentityWorkbook(exportOutPath, identities); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("candidate", exportCandidate),
			zap.Int("identities", len(identities)),
			zap.String("path", exportOutPath))
		return nil
	},
}

var identityHeader = []string{
	"Platform", "Profile ID", "Profile URL", "Confidence", "Bucket",
	"Bridge Tier", "Signals", "Persist Reason", "Contradiction",
	"Status", "Discovered By",
}

func writeIdentityWorkbook(path string, identities []model.IdentityCandidate) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Identities")
	if err != nil {
		return eris.Wrap(err, "add sheet")
	}

	header := sheet.AddRow()
	for _, h := range identityHeader {
		header.AddCell().SetString(h)
	}

	for _, ic := range identities {
		row := sheet.AddRow()
		row.AddCell().SetString(string(ic.Platform))
		row.AddCell().SetString(ic.PlatformID)
		row.AddCell().SetString(ic.ProfileURL)
		row.AddCell().SetString(fmt.Sprintf("%.2f", ic.Confidence))
		row.AddCell().SetString(string(ic.Bucket))
		row.AddCell().SetString(fmt.Sprintf("%d", ic.BridgeTier))
		row.AddCell().SetString(signalList(ic.BridgeSignals))
		row.AddCell().SetString(ic.PersistReason)
		row.AddCell().SetString(ic.ContradictionNote)
		row.AddCell().SetString(string(ic.Status))
		row.AddCell().SetString(ic.DiscoveredBy)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "save workbook")
	}
	return nil
}

func signalList(signals []model.Signal) string {
	if len(signals) == 0 {
		return ""
	}
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = string(s)
	}
	return strings.Join(out, ", ")
}

func init() {
	exportCmd.Flags().StringVar(&exportTenant, "tenant", "", "tenant ID (required)")
	exportCmd.Flags().StringVar(&exportCandidate, "candidate", "", "candidate ID (required)")
	exportCmd.Flags().StringVar(&exportOutPath, "out", "identities.xlsx", "output workbook path")
	_ = exportCmd.MarkFlagRequired("tenant")
	_ = exportCmd.MarkFlagRequired("candidate")
	rootCmd.AddCommand(exportCmd)
}
