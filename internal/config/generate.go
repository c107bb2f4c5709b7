// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"
)

// GenerateCUE renders cfg as a config file that round-trips through Load.
// The GitHub token is never written out.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// Serverless standalone configuration\n")
	sb.WriteString("// Every key may also be set as SERVERLESS_<KEY>, e.g. SERVERLESS_REGION.\n\n")

	fmt.Fprintf(&sb, "region: %q\n", cfg.Region)
	if cfg.InstallDir != "" {
		fmt.Fprintf(&sb, "install_dir: %q\n", cfg.InstallDir)
	}
	if cfg.GitHubToken != "" {
		sb.WriteString("// github_token is set (hidden)\n")
	}

	sb.WriteString("\nnetwork: {\n")
	fmt.Fprintf(&sb, "\tcheck_timeout: %q\n", cfg.Network.CheckTimeout.String())
	fmt.Fprintf(&sb, "\tdownload_timeout: %q\n", cfg.Network.DownloadTimeout.String())
	if cfg.Network.UserAgent != "" {
		fmt.Fprintf(&sb, "\tuser_agent: %q\n", cfg.Network.UserAgent)
	}
	if cfg.Network.Mirror != "" {
		fmt.Fprintf(&sb, "\tmirror: %q\n", cfg.Network.Mirror)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
