//go:build linux

package provision

import (
	"github.com/google/nftables"
	"github.com/google/nftables/expr"

	"github.com/araneid-sim/araneid/internal/errx"
)

// HostNAT masquerades traffic leaving a host's bridge so emulated guests
// can reach networks beyond the emulation. One table per bridge keeps
// cleanup independent of any other rules on the machine.
type HostNAT struct {
	bridge string
	conn   *nftables.Conn
	table  *nftables.Table
}

// NewHostNAT prepares NAT management for the named bridge interface.
func NewHostNAT(bridge string) *HostNAT {
	return &HostNAT{bridge: bridge}
}

func (n *HostNAT) tableName() string { return "araneid_nat_" + n.bridge }

// Setup programs a postrouting masquerade for traffic entering on the
// bridge and leaving on any other interface, plus forward accepts in both
// directions.
func (n *HostNAT) Setup() error {
	conn, err := nftables.New()
	if err != nil {
		return errx.With(ErrSetupNAT, ": open nftables connection: %w", err)
	}
	n.conn = conn

	n.table = conn.AddTable(&nftables.Table{
		Family: nftables.TableFamilyIPv4,
		Name:   n.tableName(),
	})

	postChain := conn.AddChain(&nftables.Chain{
		Name:     "postrouting",
		Table:    n.table,
		Type:     nftables.ChainTypeNAT,
		Hooknum:  nftables.ChainHookPostrouting,
		Priority: nftables.ChainPriorityNATSource,
	})

	fwdChain := conn.AddChain(&nftables.Chain{
		Name:     "forward",
		Table:    n.table,
		Type:     nftables.ChainTypeFilter,
		Hooknum:  nftables.ChainHookForward,
		Priority: nftables.ChainPriorityFilter,
	})

	conn.AddRule(&nftables.Rule{
		Table: n.table,
		Chain: postChain,
		Exprs: []expr.Any{
			&expr.Meta{Key: expr.MetaKeyOIFNAME, Register: 1},
			&expr.Cmp{
				Op:       expr.CmpOpNeq,
				Register: 1,
				Data:     ifname(n.bridge),
			},
			&expr.Meta{Key: expr.MetaKeyIIFNAME, Register: 1},
			&expr.Cmp{
				Op:       expr.CmpOpEq,
				Register: 1,
				Data:     ifname(n.bridge),
			},
			&expr.Masq{},
		},
	})

	conn.AddRule(&nftables.Rule{
		Table: n.table,
		Chain: fwdChain,
		Exprs: []expr.Any{
			&expr.Meta{Key: expr.MetaKeyIIFNAME, Register: 1},
			&expr.Cmp{
				Op:       expr.CmpOpEq,
				Register: 1,
				Data:     ifname(n.bridge),
			},
			&expr.Verdict{Kind: expr.VerdictAccept},
		},
	})

	conn.AddRule(&nftables.Rule{
		Table: n.table,
		Chain: fwdChain,
		Exprs: []expr.Any{
			&expr.Meta{Key: expr.MetaKeyOIFNAME, Register: 1},
			&expr.Cmp{
				Op:       expr.CmpOpEq,
				Register: 1,
				Data:     ifname(n.bridge),
			},
			&expr.Verdict{Kind: expr.VerdictAccept},
		},
	})

	if err := conn.Flush(); err != nil {
		return errx.With(ErrSetupNAT, ": %w", err)
	}
	return nil
}

// Cleanup removes this bridge's NAT table. Safe to call without a prior
// Setup in the same process.
func (n *HostNAT) Cleanup() error {
	if n.conn == nil {
		conn, err := nftables.New()
		if err != nil {
			return errx.With(ErrCleanupNAT, ": open nftables connection: %w", err)
		}
		n.conn = conn
	}

	tables, err := n.conn.ListTables()
	if err != nil {
		return errx.With(ErrCleanupNAT, ": %w", err)
	}

	for _, t := range tables {
		if t.Name == n.tableName() && t.Family == nftables.TableFamilyIPv4 {
			n.conn.DelTable(t)
			break
		}
	}
	if err := n.conn.Flush(); err != nil {
		return errx.With(ErrCleanupNAT, ": %w", err)
	}
	return nil
}

func ifname(n string) []byte {
	b := make([]byte, 16)
	copy(b, n)
	return b
}
