// Stroop - тест Струпа в терминале: слово показывается цветом, который с
// ним не совпадает, и нужно назвать цвет, а не слово. Ответить можно
// голосом, пальцами, цветным предметом, QR карточкой, мышью или клавишей.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stroop/internal/app"
	"stroop/internal/config"
	"stroop/internal/input"
	"stroop/internal/notify"
	"stroop/internal/term"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

var (
	// Глобальные флаги
	verbose    bool
	configPath string
	logPath    string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stroop",
	Short: "Stroop test with voice, gesture, camera and keyboard answers",
	Long: `Stroop shows color names printed in a different ink color.
Answer with the INK color using the method set in config.toml:
voice, gesture, swatch, qr, click or keys.

Change settings with "stroop config set <key> <value>".
Environment overrides: STROOP_LANGUAGE, STROOP_METHOD, STROOP_GOOGLE_API_KEY.

Run without arguments to play a session.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runPlay,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a session (default command)",
	Args:  cobra.NoArgs,
	RunE:  runPlay,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "stroop", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: config.toml next to the binary)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "log file while playing (default: stroop.log next to the config)")

	rootCmd.AddCommand(playCmd, versionCmd, configCmd, modelsCmd, qrCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger строит JSON логгер. Пока интерфейс занимает терминал, лог
// пишется в файл.
func newLogger(paths ...string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if len(paths) > 0 {
		cfg.OutputPaths = paths
		cfg.ErrorOutputPaths = paths
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.New()
	}
	return config.Load(configPath)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := logPath
	if path == "" {
		path = filepath.Join(cfg.Dir(), "stroop.log")
	}
	if logger, err = newLogger(path); err != nil {
		return err
	}
	logger.Info("запуск", zap.String("version", Version), zap.String("method", cfg.Method()), zap.String("language", cfg.Language()))

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	screen, err := term.Open()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}

	ui := application.UI()
	screen.Message(ui.T("title"), "", ui.T("intro"), ui.T("intro_quit"), "", ui.T("intro_start"))
	if !intro(ctx, screen, 2*time.Second) {
		screen.Close()
		return nil
	}

	summary := application.Play(ctx, screen)
	screen.Close()

	for _, line := range notify.Report(ui, summary) {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

// intro держит заставку d; false - пользователь вышел.
func intro(ctx context.Context, target input.RenderTarget, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if input.HasQuit(target.Poll()) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(50 * time.Millisecond):
		}
	}
	return true
}
