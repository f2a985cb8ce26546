package main

import (
	"os"

	"gridcal/internal/commands"
	appLog "gridcal/internal/log"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}
