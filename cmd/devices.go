package cmd

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lazyvibe/codescan/internal/app"
	"github.com/lazyvibe/codescan/internal/capture/device"
	"github.com/lazyvibe/codescan/pkg/utils"
)

var devicesCmd = newDevicesCmd()

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List capture devices and whether they can be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := loadConfig()
			if err != nil {
				return err
			}
			devCfg, err := cfg.DeviceConfig()
			if err != nil {
				return err
			}
			renderDevices(cmd, cfg, device.NewRegistryWithConfig(devCfg))
			return nil
		},
	}
}

func renderDevices(cmd *cobra.Command, cfg *app.Config, registry *device.Registry) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Device", "Facing", "Source", "Status", "Selected"})
	table.SetAutoWrapText(false)

	for _, d := range registry.List() {
		status := "available"
		if err := d.Available(); err != nil {
			status = err.Error()
		}
		selected := ""
		if d.Name() == cfg.Device {
			selected = "*"
		}
		table.Append([]string{d.Name(), string(d.Facing()), deviceSource(d), status, selected})
	}

	table.Render()
}

func deviceSource(d device.Device) string {
	switch dev := d.(type) {
	case *device.ZbarDevice:
		return dev.Video()
	case *device.SpoolDevice:
		return utils.CollapseHome(dev.Dir())
	default:
		return ""
	}
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
