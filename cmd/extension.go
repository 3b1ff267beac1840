package cmd

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// RunExtension attempts to find and execute an external pft-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found or executed.
//
// The global flags are passed to the extension as their PFT_* environment
// variables.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "pft-" + subcommand

	// Look for the external command in PATH
	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		log.Printf("External command %q not found in PATH: %v", externalCmdName, err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmd.Env = append(os.Environ(),
		EnvLedgerFile+"="+*ledgerFile,
		EnvDatabaseURL+"="+*databaseURL,
		EnvCurrency+"="+*currency,
		EnvClassification+"="+*classification,
		EnvQuotes+"="+*quotes,
		EnvQuoteWorkers+"="+*quoteWorkers,
		EnvQuoteCache+"="+*quoteCache,
		EnvEODHDAPIKey+"="+*eodhdAPIKey,
		EnvVerbose+"="+strconv.FormatBool(*verbose),
	)

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
				return true, status.ExitStatus()
			}
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}

	return true, 0
}

// IsCommand reports whether name is a builtin subcommand.
func IsCommand(name string) bool {
	for _, c := range Commands {
		if c.Name() == name {
			return true
		}
	}
	switch name {
	case "help", "flags", "commands":
		return true
	}
	return false
}
