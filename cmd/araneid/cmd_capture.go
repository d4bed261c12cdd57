package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/araneid-sim/araneid/pkg/capture"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Inspect packet traces",
}

var captureInspectCmd = &cobra.Command{
	Use:   "inspect <trace>",
	Short: "Print the events recorded in a packet trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := capture.ReadAll(args[0])
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("empty trace")
			return nil
		}

		// Render times relative to the first event so the trace reads as
		// a simulation timeline rather than wall-clock noise.
		epoch := records[0].TimeNs

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tEVENT\tREASON\tSRC\tDST\tBYTES")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
				time.Duration(rec.TimeNs-epoch), rec.Event, rec.Reason, rec.Src, rec.Dst, rec.Bytes)
		}
		return w.Flush()
	},
}

func init() {
	captureCmd.AddCommand(captureInspectCmd)
	rootCmd.AddCommand(captureCmd)
}
