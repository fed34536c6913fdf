package flags

import "flag"

var (
	ConfigFile = flag.String("config", "./config.yaml", "Use this configuration file")
	StateDir   = flag.String("state-dir", "", "Override the shared auth state directory")
)
