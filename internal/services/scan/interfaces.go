package scan

import (
	"context"
)

// Service executes partner shop scans.
type Service interface {
	// DropoffIn accepts a donated item at a shop against the donor code.
	DropoffIn(ctx context.Context, itemID string, req DropoffRequest, payload string) (*Result, error)
	// ClaimOut releases an item to its collector against the collector
	// code and completes the exchange.
	ClaimOut(ctx context.Context, itemID string, req ClaimOutRequest, payload string) (*Result, error)
	ViewItem(ctx context.Context, itemID string) (*ItemView, error)
	// Resolve reports what a shop would do with payload without changing
	// anything.
	Resolve(ctx context.Context, payload, shopID string) (*Resolution, error)
}
