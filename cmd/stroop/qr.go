package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stroop/internal/camera"
	"stroop/internal/qr"
)

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "QR reference card tools",
}

var qrCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the QR reference directory",
	Long: `Decodes every qr_<color>.png/.jpg in the reference directory and
prints which cards are admitted. A card is admitted only when its decoded
payload equals the color key in its file name.`,
	Args: cobra.NoArgs,
	RunE: runQRCheck,
}

func init() {
	qrCmd.AddCommand(qrCheckCmd)
}

func runQRCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if logger, err = newLogger("stderr"); err != nil {
		return err
	}

	dir := cfg.QR().Dir
	table, err := qr.Build(dir, camera.DecodeFile, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "reference dir: %s\n", dir)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tKEY\tPAYLOAD\tSTATUS")
	for _, ref := range table.References() {
		status := "ok"
		if !ref.Admitted() {
			status = ref.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%q\t%s\n", filepath.Base(ref.Path), ref.Key, ref.Payload, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d admitted: %v\n", table.Len(), table.Keys())
	return nil
}
