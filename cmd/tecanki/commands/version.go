package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/tecanki/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "", "text":
			fmt.Println(version.Full())
			return nil
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(version.Get())
		case "yaml":
			return yaml.NewEncoder(os.Stdout).Encode(version.Get())
		case "short":
			fmt.Println(version.String())
			return nil
		}
		return fmt.Errorf("unknown format %q (valid: text, short, json, yaml)", format)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().String("format", "text", "output format: text, short, json, yaml")
	rootCmd.Version = version.String()
}
