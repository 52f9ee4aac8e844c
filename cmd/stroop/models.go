package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stroop/internal/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage speech and hand-tracking models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known models and whether they are installed",
	Args:  cobra.NoArgs,
	RunE:  runModelsList,
}

var modelsDownloadCmd = &cobra.Command{
	Use:   "download [model-id]",
	Short: "Download a model",
	Long: `Downloads a model into the models directory.

Vosk models are fetched and unpacked automatically. The palm detector
and hand landmark models have no public URL; the command prints where to
put the files.`,
	Args: cobra.ExactArgs(1),
	RunE: runModelsDownload,
}

func init() {
	modelsCmd.AddCommand(modelsListCmd, modelsDownloadCmd)
}

func modelManager() (*models.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return models.NewManager(cfg.ModelsDir())
}

func runModelsList(cmd *cobra.Command, args []string) error {
	m, err := modelManager()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tENGINE\tLOCALE\tSIZE\tINSTALLED")
	for _, info := range models.Registry {
		installed := "no"
		if m.IsDownloaded(info) {
			installed = "yes"
		}
		size := "-"
		if info.Size > 0 {
			size = fmt.Sprintf("%d MB", info.Size/(1024*1024))
		}
		locale := info.Locale
		if locale == "" {
			locale = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", info.ID, models.EngineName(info.Engine), locale, size, installed)
	}
	fmt.Fprintf(w, "\nmodels dir: %s\n", m.ModelsDir())
	return w.Flush()
}

func runModelsDownload(cmd *cobra.Command, args []string) error {
	info, ok := models.GetModel(args[0])
	if !ok {
		return fmt.Errorf("unknown model %q (see `stroop models list`)", args[0])
	}
	m, err := modelManager()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	out := cmd.OutOrStdout()
	progress := make(chan models.Progress, 8)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for p := range progress {
			if p.Total > 0 {
				fmt.Fprintf(out, "\r%s: %3d%% (%d/%d MB)", p.ModelID,
					p.Downloaded*100/p.Total, p.Downloaded/(1024*1024), p.Total/(1024*1024))
			}
		}
	}()

	err = m.Download(ctx, info, progress)
	close(progress)
	<-printed
	fmt.Fprintln(out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s installed in %s\n", info.ID, m.GetModelPath(info))
	return nil
}
