package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/araneid-sim/araneid/pkg/state"
)

var subnetCmd = &cobra.Command{
	Use:   "subnet",
	Short: "Manage persisted subnet allocations",
}

var subnetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live subnet allocations",
	RunE: func(cmd *cobra.Command, args []string) error {
		allocator, err := openAllocator()
		if err != nil {
			return err
		}
		defer allocator.Close()

		infos, err := allocator.List()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "HOST\tSUBNET\tGATEWAY\tGUEST")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.HostID, info.Subnet, info.GatewayIP, info.GuestIP)
		}
		return w.Flush()
	},
}

var subnetReleaseCmd = &cobra.Command{
	Use:   "release <host-id>",
	Short: "Release a host's subnet allocation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		allocator, err := openAllocator()
		if err != nil {
			return err
		}
		defer allocator.Close()
		return allocator.Release(args[0])
	},
}

func openAllocator() (*state.SubnetAllocator, error) {
	return state.NewSubnetAllocator(filepath.Join(viper.GetString("out"), "state.db"))
}

func init() {
	subnetCmd.AddCommand(subnetListCmd)
	subnetCmd.AddCommand(subnetReleaseCmd)
	rootCmd.AddCommand(subnetCmd)
}
