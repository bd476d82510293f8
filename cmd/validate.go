package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qestkit/qestkit/sim"
	"github.com/qestkit/qestkit/sim/loader"
)

// validateCmd loads a circuit file without running it.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a circuit file and print its gate summary",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if circuitPath == "" {
			logrus.Fatalf("--circuit not provided.")
		}
		c, err := loader.Load(circuitPath)
		if err != nil {
			logrus.Fatalf("invalid circuit %s: %v", circuitPath, err)
		}
		if c.NumQubits() > sim.HardMaxQubits {
			logrus.Fatalf("circuit needs %d qubits, limit is %d", c.NumQubits(), sim.HardMaxQubits)
		}
		writeCircuitSummary(os.Stdout, circuitPath, c)
	},
}

func writeCircuitSummary(w io.Writer, name string, c *sim.Circuit) {
	fmt.Fprintf(w, "%s: OK\n", name)
	fmt.Fprintf(w, "Qubits : %d %v\n", c.NumQubits(), c.SortedQubits())
	fmt.Fprintf(w, "Gates  : %d\n", c.Len())
	summary := c.Summary()
	names := make([]string, 0, len(summary))
	for n := range summary {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-8s %d\n", n, summary[n])
	}
}

func init() {
	validateCmd.Flags().StringVar(&circuitPath, "circuit", "", "Circuit file to check (.yaml)")
}
