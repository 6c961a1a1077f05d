package scan

import (
	"strings"

	"handoff/internal/models"
)

// ActionMode is what a partner shop does with a scanned item.
type ActionMode string

const (
	ModeDropoff ActionMode = "dropoff"
	ModePickup  ActionMode = "pickup"
)

type ScanInput struct {
	PickupStatus    string
	PickupOption    string
	HasClaimContext bool
}

// State is derived fresh from the listing on every scan.
type State struct {
	// NormalizedStatus is nil when the listing has no pickup status.
	NormalizedStatus *string    `json:"normalizedStatus"`
	IsDonate         bool       `json:"isDonate"`
	IsPreDropoff     bool       `json:"isPreDropoff"`
	DropoffAllowed   bool       `json:"dropoffAllowed"`
	PickupAllowed    bool       `json:"pickupAllowed"`
	ActionMode       ActionMode `json:"actionMode"`
	// Indeterminate is set when neither action is legal; ActionMode then
	// only names the default screen.
	Indeterminate bool `json:"indeterminate"`
}

func ComputePartnerScanState(in ScanInput) State {
	var st State

	if s := strings.ToLower(strings.TrimSpace(in.PickupStatus)); s != "" {
		st.NormalizedStatus = &s
	}
	st.IsDonate = strings.ToLower(in.PickupOption) == models.PickupOptionDonate
	st.IsPreDropoff = st.NormalizedStatus == nil ||
		*st.NormalizedStatus == models.PickupStatusPendingDropoff ||
		*st.NormalizedStatus == models.PickupStatusActive
	st.DropoffAllowed = st.IsDonate && (st.IsPreDropoff || !in.HasClaimContext)
	st.PickupAllowed = st.NormalizedStatus != nil && *st.NormalizedStatus == models.PickupStatusAwaitingCollection

	switch {
	case st.DropoffAllowed:
		st.ActionMode = ModeDropoff
	case st.PickupAllowed:
		st.ActionMode = ModePickup
	default:
		st.ActionMode = ModeDropoff
	}
	st.Indeterminate = !st.DropoffAllowed && !st.PickupAllowed
	return st
}

// Allowed reports whether mode is the current action and is legal.
func (s State) Allowed(mode ActionMode) bool {
	if s.ActionMode != mode {
		return false
	}
	switch mode {
	case ModeDropoff:
		return s.DropoffAllowed
	case ModePickup:
		return s.PickupAllowed
	}
	return false
}

func (m ActionMode) qrType() models.QRType {
	if m == ModePickup {
		return models.QRTypeCollector
	}
	return models.QRTypeDonor
}
