package state

import "errors"

var (
	ErrOpenStateDB        = errors.New("state: open state database failed")
	ErrMigrateStateDB     = errors.New("state: migrate state database failed")
	ErrQuerySubnets       = errors.New("state: query subnet allocations failed")
	ErrSaveSubnet         = errors.New("state: save subnet allocation failed")
	ErrSubnetNotFound     = errors.New("state: no subnet allocated for host")
	ErrNoAvailableSubnets = errors.New("state: no available subnets")
)
