package cmdutil

import "github.com/spf13/pflag"

// PersistentFlags defines the flags shared by every command
func PersistentFlags(flags *pflag.FlagSet) {
	flags.Bool("debug", false, "debug flag")
	flags.String("config", "", "config file")
	flags.StringSlice("dotenv", []string{".env.local", ".env"}, "dotenv files loaded before the config")
	flags.String("data-dir", "", "directory of the series csv files, overrides the config")
}
