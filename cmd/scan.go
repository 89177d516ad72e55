package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lazyvibe/codescan/internal/app"
	"github.com/lazyvibe/codescan/internal/logger"
	"github.com/lazyvibe/codescan/internal/model"
	"github.com/lazyvibe/codescan/internal/notify"
	"github.com/lazyvibe/codescan/internal/permission"
	"github.com/lazyvibe/codescan/internal/realtime"
	"github.com/lazyvibe/codescan/internal/runtime"
	"github.com/lazyvibe/codescan/internal/scanning"
	"github.com/lazyvibe/codescan/internal/store"
	"github.com/lazyvibe/codescan/internal/ui"
	"github.com/lazyvibe/codescan/pkg/utils"
)

// ErrPermissionDenied is returned when the user refuses camera access.
var ErrPermissionDenied = errors.New("camera permission denied; run `codescan permission reset` to be asked again")

var scanCmd = newScanCmd()

var (
	scanDeviceFlag     string
	scanAcceptFlag     string
	scanSymbologyFlags []string
	scanServeFlag      string
	scanOnceFlag       bool
	scanLogFileFlag    string
	scanFrameRateFlag  float64
	scanPlainFlag      bool
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan until a valid code is found",
		Long: `Ask for camera permission if needed, then scan frames until a code passes
validation. The accepted payload is printed to stdout.

When stdout is a terminal an interactive view is shown; otherwise every state
change is written to stderr as a line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyScanFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runScan(cmd, dir, cfg)
		},
	}
	cmd.Flags().StringVarP(&scanDeviceFlag, "device", "d", "", "capture device: zbar or spool")
	cmd.Flags().StringVarP(&scanAcceptFlag, "accept", "a", "", "regular expression the whole payload must match")
	cmd.Flags().StringArrayVarP(&scanSymbologyFlags, "symbology", "s", nil, "code type to report (repeatable, comma-separated)")
	cmd.Flags().StringVar(&scanServeFlag, "serve", "", "serve the live state feed on this address, e.g. :8765")
	cmd.Flags().BoolVar(&scanOnceFlag, "once", false, "exit as soon as a code is scanned")
	cmd.Flags().StringVar(&scanLogFileFlag, "log-file", "", "write logs to this file")
	cmd.Flags().Float64Var(&scanFrameRateFlag, "frame-rate", 0, "maximum frames analyzed per second (0 = unlimited)")
	cmd.Flags().BoolVar(&scanPlainFlag, "plain", false, "print state lines even on a terminal")

	return cmd
}

func applyScanFlags(cmd *cobra.Command, cfg *app.Config) {
	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device = scanDeviceFlag
	}
	if flags.Changed("accept") {
		cfg.Accept = scanAcceptFlag
	}
	if flags.Changed("symbology") {
		cfg.Symbologies = utils.FlattenList(scanSymbologyFlags)
	}
	if flags.Changed("serve") {
		cfg.ServeAddr = scanServeFlag
	}
	if flags.Changed("frame-rate") {
		cfg.FrameRate = scanFrameRateFlag
	}
}

func runScan(cmd *cobra.Command, dir string, cfg *app.Config) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	log, closeLog, err := logger.NewFile(scanLogFileFlag, level, "codescan")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer closeLog()

	s, err := store.NewJSONStore(dir)
	if err != nil {
		return err
	}
	defer s.Close()

	gate := permission.NewGate(newAuthority(cmd, s, cfg), permission.WithLogger(log))
	if gate.RequestAccess(ctx) != model.PermissionGranted {
		return ErrPermissionDenied
	}

	engine, feedback, err := newEngine(ctx, cfg, gate, log)
	if err != nil {
		return err
	}
	defer feedback.Wait()
	defer engine.CloseAll()

	if !scanPlainFlag && ui.IsTTY(cmd.OutOrStdout()) {
		return runInteractive(ctx, cmd, cfg, engine)
	}
	return runPlain(ctx, cmd, engine)
}

func newEngine(ctx context.Context, cfg *app.Config, gate *permission.Gate, log *logger.Logger) (*runtime.DefaultEngine, *notify.Dispatcher, error) {
	devCfg, err := cfg.DeviceConfig()
	if err != nil {
		return nil, nil, err
	}
	syms, err := cfg.SymbologySet()
	if err != nil {
		return nil, nil, err
	}
	pred, err := cfg.Predicate()
	if err != nil {
		return nil, nil, err
	}

	feedback := notify.NewDispatcher(cfg.Feedback, log)
	opts := []runtime.Option{
		runtime.WithFeedback(feedback),
		runtime.WithLogger(log),
	}

	if cfg.ServeAddr != "" {
		feed := realtime.New(log)
		opts = append(opts, runtime.WithObserver(func(sc *scanning.Scanner) {
			feed.Follow(ctx, sc)
		}))
		go func() {
			if err := feed.ListenAndServe(ctx, cfg.ServeAddr); err != nil {
				log.Error(ctx, "state feed stopped", "error", err)
			}
		}()
	}

	engine := runtime.NewEngine(gate, runtime.Config{
		Device:      devCfg,
		DeviceName:  cfg.Device,
		Facing:      cfg.Facing,
		Symbologies: syms,
		Predicate:   pred,
		FrameRate:   cfg.FrameRate,
	}, opts...)
	return engine, feedback, nil
}

func runInteractive(ctx context.Context, cmd *cobra.Command, cfg *app.Config, engine *runtime.DefaultEngine) error {
	application := ui.New(ctx, engine, ui.Options{
		Device:     cfg.Device,
		ExitOnScan: scanOnceFlag,
	})
	p := tea.NewProgram(application,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if a, ok := final.(*ui.App); ok {
		if payload, ok := a.Result(); ok {
			fmt.Fprintln(cmd.OutOrStdout(), payload)
			return nil
		}
		if st := a.State(); st.Kind == model.StateError {
			return errors.New(st.Message)
		}
		if err := a.CaptureError(); err != nil {
			return fmt.Errorf("capture ended: %w", err)
		}
	}
	return ctx.Err()
}

func runPlain(ctx context.Context, cmd *cobra.Command, engine *runtime.DefaultEngine) error {
	st, err := ui.NewSimpleUI(engine, cmd.ErrOrStderr()).Run(ctx)
	if err != nil {
		return err
	}
	switch st.Kind {
	case model.StateScannedCode:
		fmt.Fprintln(cmd.OutOrStdout(), st.Payload)
		return nil
	case model.StateError:
		return errors.New(st.Message)
	default:
		return errors.New("capture ended before a code was scanned")
	}
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
