package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clothline/dispatch/config"
)

// ValidateCmd loads a config file and reports whether it is well-formed,
// mirroring the teacher's validate command (load -> SetDefaults -> Validate,
// already folded into config.LoadConfig).
type ValidateCmd struct {
	ConfigPath string `arg:"" name:"config" help:"Configuration file path." placeholder:"PATH"`
	Print      bool   `short:"p" name:"print" help:"Print the expanded configuration (defaults applied, env vars resolved)."`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := config.LoadConfig(c.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: invalid: %v\n", c.ConfigPath, err)
		return fmt.Errorf("config validation failed")
	}

	fmt.Printf("%s: valid\n", c.ConfigPath)

	if c.Print {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encoding expanded config: %w", err)
		}
	}
	return nil
}
