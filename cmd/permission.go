package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazyvibe/codescan/internal/app"
	"github.com/lazyvibe/codescan/internal/permission"
	"github.com/lazyvibe/codescan/internal/store"
)

var permissionCmd = newPermissionCmd()

func newPermissionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permission",
		Short: "Show the stored camera permission",
		Long: `Show whether codescan may use the camera. The first scan asks once and
remembers the answer; reset forgets it so the next scan asks again.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return showPermission(cmd, dir, cfg)
		},
	}
	cmd.AddCommand(
		newPermissionSetCmd("reset", "Forget the stored decision", nil),
		newPermissionSetCmd("grant", "Allow camera use without asking", ptr(true)),
		newPermissionSetCmd("deny", "Refuse camera use without asking", ptr(false)),
	)

	return cmd
}

func newPermissionSetCmd(use, short string, granted *bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := configDir()
			if err != nil {
				return err
			}
			s, err := store.NewJSONStore(dir)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if granted == nil {
				if err := s.Reset(ctx, permission.ResourceCamera); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "camera permission reset")
				return nil
			}
			d := &store.Decision{
				Resource:  permission.ResourceCamera,
				Granted:   *granted,
				DecidedAt: time.Now(),
			}
			if err := s.Put(ctx, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "camera permission %s\n", decisionLabel(*granted))
			return nil
		},
	}
}

func showPermission(cmd *cobra.Command, dir string, cfg *app.Config) error {
	s, err := store.NewJSONStore(dir)
	if err != nil {
		return err
	}
	defer s.Close()

	gate := permission.NewGate(newAuthority(cmd, s, cfg))
	status := gate.QueryStatus()

	d, err := s.Get(cmd.Context(), permission.ResourceCamera)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintf(cmd.OutOrStdout(), "camera: %s\n", status)
	case err != nil:
		return err
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "camera: %s (%s %s)\n", status, decisionLabel(d.Granted), d.DecidedAt.Format(time.RFC3339))
	}
	return nil
}

// newAuthority builds the authority chain used by every command.
func newAuthority(cmd *cobra.Command, s store.DecisionStore, cfg *app.Config) permission.Authority {
	prompt := permission.NewPromptAuthority(cmd.InOrStdin(), cmd.ErrOrStderr(), s)
	video := ""
	if cfg.Device == "zbar" {
		video = cfg.VideoDevice
	}
	return permission.NewDeviceAuthority(prompt, video)
}

func decisionLabel(granted bool) string {
	if granted {
		return "granted"
	}
	return "denied"
}

func ptr[T any](v T) *T {
	return &v
}

func init() {
	rootCmd.AddCommand(permissionCmd)
}
