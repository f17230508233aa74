/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Set with -ldflags "-X main.version=... -X main.gitCommit=... -X main.buildDate=...".
var (
	version   = "0.1.0"
	gitCommit = ""
	buildDate = ""
)

type buildInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
}

// currentBuild fills what the linker flags left unset from the VCS stamp
// the go command embeds.
func currentBuild() buildInfo {
	info := buildInfo{
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.GitCommit == "":
				info.GitCommit = s.Value
			case s.Key == "vcs.time" && info.BuildDate == "":
				info.BuildDate = s.Value
			}
		}
	}
	if info.GitCommit == "" {
		info.GitCommit = "unknown"
	}
	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}
	return info
}

func newVersionCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := currentBuild()
			out := cmd.OutOrStdout()

			switch output {
			case "json":
				data, err := gojson.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			case "yaml":
				enc := yaml.NewEncoder(out)
				if err := enc.Encode(info); err != nil {
					return err
				}
				return enc.Close()
			case "":
				_, _ = fmt.Fprintf(out, "proxystore version %s\n", info.Version)
				_, _ = fmt.Fprintf(out, "Git commit: %s\n", info.GitCommit)
				_, _ = fmt.Fprintf(out, "Build date: %s\n", info.BuildDate)
				_, _ = fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
				return nil
			}
			return fmt.Errorf("unknown output format %q", output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output format (json|yaml)")
	return cmd
}
