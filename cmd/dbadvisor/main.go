// Package main provides the entry point for the dbadvisor CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/dbadvisor/cmd/dbadvisor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
