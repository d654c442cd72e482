package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"waapiview/internal/domain"
	"waapiview/internal/engine"
)

type versionOutput struct {
	URL         string `json:"url" yaml:"url"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Version     string `json:"version" yaml:"version"`
	Year        int    `json:"year,omitempty" yaml:"year,omitempty"`
	Build       int    `json:"build,omitempty" yaml:"build,omitempty"`
	Platform    string `json:"platform,omitempty" yaml:"platform,omitempty"`
	Semver      string `json:"semver,omitempty" yaml:"semver,omitempty"`
}

// toolVersion reads a reported version such as "v2023.1.0 Build 8367".
func toolVersion(info domain.VersionInfo) (*semver.Version, error) {
	fields := strings.Fields(info.Version)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no version reported")
	}
	return semver.NewVersion(fields[0])
}

func newVersionCmd(options *rootOptions) *cobra.Command {
	var require string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Connect and print the authoring tool version",
		Long: `Connect and print the authoring tool version.

--require fails the command unless the version satisfies a constraint
such as ">=2021.1".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var constraint *semver.Constraints
			if require != "" {
				parsed, err := semver.NewConstraint(require)
				if err != nil {
					return fmt.Errorf("--require %q: %w", require, err)
				}
				constraint = parsed
			}
			eng := options.newEngine()
			defer closeEngine(eng)

			event, err := expect(eng.Await(cmd.Context(), eng.Connect()))
			if err != nil {
				return err
			}
			info := event.(engine.Connected).Version
			result := versionOutput{
				URL:         options.cfg.URL,
				DisplayName: info.DisplayName,
				Version:     info.Version,
				Year:        info.Year,
				Build:       info.Build,
				Platform:    info.Platform,
			}
			if options.demo {
				result.URL = "demo"
			}
			version, err := toolVersion(info)
			if err == nil {
				result.Semver = version.String()
			}
			if constraint != nil {
				if err != nil {
					return fmt.Errorf("can not check %q: %w", info.Version, err)
				}
				if !constraint.Check(version) {
					return fmt.Errorf("%s does not satisfy %s", version, require)
				}
			}
			return writeResult(cmd, options.format, result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s at %s\n", info.String(), result.URL)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&require, "require", "", "version constraint the tool must satisfy")
	return cmd
}
