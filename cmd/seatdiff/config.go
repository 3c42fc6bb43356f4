package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/DoyleJ11/versus-room/internal/diff"
)

type Config struct {
	old           string
	new           string
	iconThreshold int
	textThreshold int
	json          bool
	verbose       bool

	fs afero.Fs
}

func (c *Config) validate() error {
	if c.old == "" || c.new == "" {
		return errors.New("both --old and --new screenshots must be provided")
	}
	if c.iconThreshold < 0 || c.textThreshold < 0 {
		return fmt.Errorf("thresholds must not be negative: icon=%d text=%d", c.iconThreshold, c.textThreshold)
	}
	return nil
}

func (c *Config) thresholds() diff.Thresholds {
	return diff.Thresholds{Icon: c.iconThreshold, Text: c.textThreshold}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SEATDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "seatdiff --old before.png --new after.png",
		Short:         "Compare two lobby screenshots and report who stayed, moved, left or entered.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.old, "old", "o", "", "earlier screenshot (env: SEATDIFF_OLD)")
	fs.StringVarP(&cfg.new, "new", "n", "", "later screenshot (env: SEATDIFF_NEW)")
	fs.IntVar(&cfg.iconThreshold, "icon-threshold", diff.DefaultThresholds.Icon, "max combined icon hash distance for a match (env: SEATDIFF_ICON_THRESHOLD)")
	fs.IntVar(&cfg.textThreshold, "text-threshold", diff.DefaultThresholds.Text, "max nameplate hash distance for a match (env: SEATDIFF_TEXT_THRESHOLD)")
	fs.BoolVarP(&cfg.json, "json", "j", false, "print the report as JSON (env: SEATDIFF_JSON)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log analysis details to stderr (env: SEATDIFF_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("seatdiff v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
