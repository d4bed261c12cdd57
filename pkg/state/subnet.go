// Package state persists subnet allocations for emulated hosts in a
// sqlite database, so topologies running concurrently (or across process
// restarts) never hand two hosts the same /24.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/araneid-sim/araneid/internal/errx"
)

// Each host gets 192.168.<octet>.0/24 with the gateway on .1 and the guest
// on .2; octets 100-254 leave the low range to whatever the operator's own
// network uses.
const (
	minOctet = 100
	maxOctet = 254
)

// SubnetInfo describes one host's allocated /24.
type SubnetInfo struct {
	Octet     int    `json:"octet"`
	GatewayIP string `json:"gateway_ip"`
	GuestIP   string `json:"guest_ip"`
	Subnet    string `json:"subnet"`
	HostID    string `json:"host_id"`
}

// SubnetAllocator hands out unique /24 subnets backed by a sqlite table.
type SubnetAllocator struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSubnetAllocator opens (creating if needed) the allocation database at
// path and migrates its schema.
func NewSubnetAllocator(path string) (*SubnetAllocator, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &SubnetAllocator{db: db}, nil
}

// Close releases the underlying database handle.
func (a *SubnetAllocator) Close() error { return a.db.Close() }

// Allocate assigns the first free octet to hostID. Allocating for a host
// that already holds a subnet returns the existing allocation.
func (a *SubnetAllocator) Allocate(hostID string) (*SubnetInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if info, err := a.get(hostID); err == nil {
		return info, nil
	} else if !errors.Is(err, ErrSubnetNotFound) {
		return nil, err
	}

	tx, err := a.db.Begin()
	if err != nil {
		return nil, errx.Wrap(ErrSaveSubnet, err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT octet FROM subnets ORDER BY octet`)
	if err != nil {
		return nil, errx.Wrap(ErrQuerySubnets, err)
	}
	used := make(map[int]bool)
	for rows.Next() {
		var octet int
		if err := rows.Scan(&octet); err != nil {
			rows.Close()
			return nil, errx.Wrap(ErrQuerySubnets, err)
		}
		used[octet] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errx.Wrap(ErrQuerySubnets, err)
	}

	octet := 0
	for o := minOctet; o <= maxOctet; o++ {
		if !used[o] {
			octet = o
			break
		}
	}
	if octet == 0 {
		return nil, errx.With(ErrNoAvailableSubnets, ": all %d-%d in use", minOctet, maxOctet)
	}

	if _, err := tx.Exec(
		`INSERT INTO subnets (host_id, octet, created_at) VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))`,
		hostID, octet,
	); err != nil {
		return nil, errx.Wrap(ErrSaveSubnet, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errx.Wrap(ErrSaveSubnet, err)
	}
	return infoForOctet(hostID, octet), nil
}

// Release frees hostID's subnet. Releasing a host with no allocation is a
// no-op.
func (a *SubnetAllocator) Release(hostID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.db.Exec(`DELETE FROM subnets WHERE host_id = ?`, hostID); err != nil {
		return errx.Wrap(ErrQuerySubnets, err)
	}
	return nil
}

// Get retrieves hostID's allocation.
func (a *SubnetAllocator) Get(hostID string) (*SubnetInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.get(hostID)
}

func (a *SubnetAllocator) get(hostID string) (*SubnetInfo, error) {
	var octet int
	err := a.db.QueryRow(`SELECT octet FROM subnets WHERE host_id = ?`, hostID).Scan(&octet)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errx.With(ErrSubnetNotFound, ": %s", hostID)
	}
	if err != nil {
		return nil, errx.Wrap(ErrQuerySubnets, err)
	}
	return infoForOctet(hostID, octet), nil
}

// List returns every live allocation in octet order.
func (a *SubnetAllocator) List() ([]SubnetInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.db.Query(`SELECT host_id, octet FROM subnets ORDER BY octet`)
	if err != nil {
		return nil, errx.Wrap(ErrQuerySubnets, err)
	}
	defer rows.Close()

	var infos []SubnetInfo
	for rows.Next() {
		var hostID string
		var octet int
		if err := rows.Scan(&hostID, &octet); err != nil {
			return nil, errx.Wrap(ErrQuerySubnets, err)
		}
		infos = append(infos, *infoForOctet(hostID, octet))
	}
	if err := rows.Err(); err != nil {
		return nil, errx.Wrap(ErrQuerySubnets, err)
	}
	return infos, nil
}

func infoForOctet(hostID string, octet int) *SubnetInfo {
	return &SubnetInfo{
		Octet:     octet,
		GatewayIP: fmt.Sprintf("192.168.%d.1", octet),
		GuestIP:   fmt.Sprintf("192.168.%d.2", octet),
		Subnet:    fmt.Sprintf("192.168.%d.0/24", octet),
		HostID:    hostID,
	}
}
