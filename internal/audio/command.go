package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Tool - внешняя программа записи в WAV.
type Tool struct {
	Name string
	// Args возвращает аргументы для записи d секунд в файл out.
	Args func(out string, d time.Duration) []string
	// Unbounded - программа не умеет останавливаться сама,
	// её прерывает контекст по истечении d.
	Unbounded bool
}

func seconds(d time.Duration) string {
	return strconv.Itoa(int((d + time.Second - 1) / time.Second))
}

// DefaultTools возвращает программы записи в порядке предпочтения.
func DefaultTools() []Tool {
	ffmpegInput := []string{"-f", "alsa", "-i", "default"}
	switch runtime.GOOS {
	case "darwin":
		ffmpegInput = []string{"-f", "avfoundation", "-i", ":0"}
	case "windows":
		ffmpegInput = []string{"-f", "dshow", "-i", "audio=default"}
	}

	return []Tool{
		{
			Name: "arecord",
			Args: func(out string, d time.Duration) []string {
				return []string{"-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-d", seconds(d), out}
			},
		},
		{
			Name: "sox",
			Args: func(out string, d time.Duration) []string {
				return []string{"-q", "-d", "-r", "16000", "-c", "1", "-b", "16", out, "trim", "0", seconds(d)}
			},
		},
		{
			Name: "ffmpeg",
			Args: func(out string, d time.Duration) []string {
				args := []string{"-hide_banner", "-loglevel", "error", "-y"}
				args = append(args, ffmpegInput...)
				return append(args, "-t", seconds(d), "-ar", "16000", "-ac", "1", out)
			},
		},
		{
			Name: "parecord",
			Args: func(out string, _ time.Duration) []string {
				return []string{"--rate=16000", "--channels=1", "--format=s16le", "--file-format=wav", out}
			},
			Unbounded: true,
		},
	}
}

// CommandRecorder записывает через внешнюю программу (arecord, sox, ffmpeg,
// parecord) во временный WAV файл.
type CommandRecorder struct {
	tools    []Tool
	session  *Session
	logger   *zap.Logger
	lookPath func(string) (string, error)
}

// NewCommandRecorder создаёт бэкенд. tools == nil означает DefaultTools.
func NewCommandRecorder(session *Session, tools []Tool, logger *zap.Logger) *CommandRecorder {
	if tools == nil {
		tools = DefaultTools()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandRecorder{
		tools:    tools,
		session:  session,
		logger:   logger.Named("command"),
		lookPath: exec.LookPath,
	}
}

// Name возвращает название бэкенда.
func (c *CommandRecorder) Name() string {
	return "system"
}

// Record запускает первую найденную программу на opts.Window().
func (c *CommandRecorder) Record(ctx context.Context, opts ListenOptions) (Clip, error) {
	tool, path, err := c.pick()
	if err != nil {
		return Clip{}, err
	}

	out := c.session.NewFile("wav")
	defer c.session.Remove(out)

	window := opts.Window()
	limit := window + 2*time.Second
	if tool.Unbounded {
		limit = window
	}
	runCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, tool.Args(out, window)...)
	// Прерываем мягко, чтобы программа успела дописать заголовок WAV.
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = time.Second

	c.logger.Debug("запись через программу", zap.String("tool", tool.Name), zap.Duration("window", window))
	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		if ctx.Err() != nil {
			return Clip{}, ctx.Err()
		}
		// Для Unbounded остановка по таймауту - нормальное завершение.
		if !(tool.Unbounded && errors.Is(runCtx.Err(), context.DeadlineExceeded)) {
			return Clip{}, fmt.Errorf("%s: %w: %s", tool.Name, runErr, trimOutput(output))
		}
	}

	info, err := os.Stat(out)
	if err != nil || info.Size() < MinFileBytes {
		return Clip{}, fmt.Errorf("%s: %w", tool.Name, ErrEmpty)
	}

	f, err := os.Open(out)
	if err != nil {
		return Clip{}, err
	}
	defer f.Close()

	clip, err := DecodeWAV(f)
	if err != nil {
		return Clip{}, fmt.Errorf("%s: %w", tool.Name, err)
	}
	if clip.Silent(opts.NoiseFloor) {
		return Clip{}, ErrSilence
	}
	return clip, nil
}

func (c *CommandRecorder) pick() (Tool, string, error) {
	for _, t := range c.tools {
		if path, err := c.lookPath(t.Name); err == nil {
			return t, path, nil
		}
	}
	return Tool{}, "", fmt.Errorf("%w: no recording program on PATH", ErrNoBackend)
}

func trimOutput(b []byte) string {
	const maxLen = 200
	if len(b) > maxLen {
		return string(b[:maxLen]) + "..."
	}
	return string(b)
}
