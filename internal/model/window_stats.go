package model

import "time"

// PoolWindowStats aggregates journal entries of one pool over one window.
type PoolWindowStats struct {
	Pool           string    `json:"pool"`
	WindowSizeSecs int64     `json:"window_size_seconds"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	SwapCount      uint64    `json:"swap_count"`
	DepositCount   uint64    `json:"deposit_count"`
	WithdrawCount  uint64    `json:"withdraw_count"`
	VolumeInA      string    `json:"volume_in_a"`
	VolumeInB      string    `json:"volume_in_b"`
	VolumeOutA     string    `json:"volume_out_a"`
	VolumeOutB     string    `json:"volume_out_b"`
	FeeA           string    `json:"fee_a"`
	FeeB           string    `json:"fee_b"`
	ReserveA       uint64    `json:"reserve_a"`
	ReserveB       uint64    `json:"reserve_b"`
	LPSupply       uint64    `json:"lp_supply"`
}
