package models

// AccountStatus is the raw status code reported by the identity provider.
type AccountStatus int

const (
	AccountStatusSuspended AccountStatus = 0
	AccountStatusInactive  AccountStatus = 1
	AccountStatusActive    AccountStatus = 2
	AccountStatusActive11  AccountStatus = 11
	AccountStatusActive12  AccountStatus = 12
)

// StatusKind is the closed classification of an AccountStatus.
type StatusKind int

const (
	StatusKindNotActive StatusKind = iota
	StatusKindSuspended
	StatusKindInactive
	StatusKindActive
)

// Status reasons surfaced in AccountInactiveError and audit events.
const (
	ReasonSuspended = "suspended"
	ReasonInactive  = "inactive"
	ReasonActive    = "active"
	ReasonNotActive = "not_active"
)

// Kind classifies the status. Codes outside the known set are not active.
func (s AccountStatus) Kind() StatusKind {
	switch s {
	case AccountStatusSuspended:
		return StatusKindSuspended
	case AccountStatusInactive:
		return StatusKindInactive
	case AccountStatusActive, AccountStatusActive11, AccountStatusActive12:
		return StatusKindActive
	default:
		return StatusKindNotActive
	}
}

// Reason returns the reason string for the status kind.
func (s AccountStatus) Reason() string {
	switch s.Kind() {
	case StatusKindSuspended:
		return ReasonSuspended
	case StatusKindInactive:
		return ReasonInactive
	case StatusKindActive:
		return ReasonActive
	default:
		return ReasonNotActive
	}
}
