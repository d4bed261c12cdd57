package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Inspect topology files",
}

var topologyValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a topology file and print its shape",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topo, duration, err := loadTopology(args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "duration\t%s\n", duration)
		fmt.Fprintf(w, "hosts\t%d\n", len(topo.Hosts))
		fmt.Fprintf(w, "links\t%d\n", len(topo.Links))
		w.Flush()

		w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FROM\tTO\tDELAY\tBANDWIDTH\tBUFFER\tLOSS\tBIDIR")
		for _, l := range topo.Links {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%v\n", l.From, l.To, l.Delay, l.Bandwidth, l.Buffer, l.Loss, l.Bidirectional)
		}
		return w.Flush()
	},
}

func init() {
	topologyCmd.AddCommand(topologyValidateCmd)
	rootCmd.AddCommand(topologyCmd)
}
