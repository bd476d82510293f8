package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/qestkit/qestkit/sim"
)

// gatesCmd lists the built-in gate catalog.
var gatesCmd = &cobra.Command{
	Use:   "gates",
	Short: "List supported gates",
	Run: func(cmd *cobra.Command, args []string) {
		writeGateTable(os.Stdout)
	},
}

func writeGateTable(w io.Writer) {
	aliases := make(map[sim.GateKind][]string)
	for _, name := range sim.SupportedGates() {
		k, err := sim.ParseGateKind(name)
		if err != nil {
			continue
		}
		if name != k.String() {
			aliases[k] = append(aliases[k], name)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GATE\tQUBITS\tPARAM\tALIASES")
	for _, k := range sim.Kinds() {
		param := k.ParamName()
		if param == "" {
			param = "-"
		}
		a := aliases[k]
		sort.Strings(a)
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", k, k.Arity(), param, strings.Join(a, ","))
	}
	fmt.Fprintln(tw, "custom\tany\t-\t(matrix)")
	_ = tw.Flush()
}
