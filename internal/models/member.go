package models

import (
	"strconv"
	"strings"
)

// MinimumHours is the exclusive lower bound of total hours required to link an account.
const MinimumHours = 5.0

const secondsPerHour = 3600.0

// Profile is the raw member record returned by the identity provider.
type Profile struct {
	VID        int64   `json:"vid"`
	FirstName  string  `json:"firstname"`
	Division   string  `json:"division"`
	Staff      *string `json:"staff"`
	Rating     int     `json:"rating"`
	HoursATC   float64 `json:"hours_atc"`
	HoursPilot float64 `json:"hours_pilot"`
}

// Member is the network identity evaluated by the authorization workflow.
type Member struct {
	VID        int64
	FirstName  string
	Division   string
	Staff      []string
	Status     AccountStatus
	HoursATC   float64
	HoursPilot float64

	ChatID          string
	ChatAccessToken string

	roles         []Role
	rolesAssigned bool
}

// NewMember builds a member from a provider profile. Hours are converted from seconds.
func NewMember(p Profile) *Member {
	staff := []string{}
	if p.Staff != nil {
		for _, tok := range strings.Split(*p.Staff, ":") {
			if tok = strings.TrimSpace(tok); tok != "" {
				staff = append(staff, tok)
			}
		}
	}

	return &Member{
		VID:        p.VID,
		FirstName:  p.FirstName,
		Division:   p.Division,
		Staff:      staff,
		Status:     AccountStatus(p.Rating),
		HoursATC:   toHours(p.HoursATC),
		HoursPilot: toHours(p.HoursPilot),
	}
}

func toHours(seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return seconds / secondsPerHour
}

// BindChat attaches the chat platform identity that will receive the guild membership.
func (m *Member) BindChat(chatID, accessToken string) {
	m.ChatID = chatID
	m.ChatAccessToken = accessToken
}

func (m *Member) IsStaff() bool {
	return len(m.Staff) > 0
}

func (m *Member) IsActive() bool {
	return m.Status.Kind() == StatusKindActive
}

func (m *Member) IsSuspended() bool {
	return m.Status.Kind() == StatusKindSuspended
}

func (m *Member) IsInactive() bool {
	return m.Status.Kind() == StatusKindInactive
}

// StatusReason returns suspended, inactive, not_active or active.
func (m *Member) StatusReason() string {
	return m.Status.Reason()
}

// TotalHours is the sum of controller and pilot hours.
func (m *Member) TotalHours() float64 {
	return m.HoursATC + m.HoursPilot
}

// GenerateNickname returns the guild nickname for the member.
func (m *Member) GenerateNickname() string {
	first := firstToken(m.FirstName)
	if m.IsStaff() {
		return first + " | " + strings.Join(m.Staff, " ")
	}
	return first + " - " + strconv.FormatInt(m.VID, 10)
}

func firstToken(name string) string {
	first, _, _ := strings.Cut(name, " ")
	return first
}

// Roles returns the assigned roles, or nil before SetRoles.
func (m *Member) Roles() []Role {
	return m.roles
}

// SetRoles assigns the member's roles. It may be called once; the returned event records
// the assignment and must be emitted by the caller.
func (m *Member) SetRoles(roles []Role) (AuditEvent, error) {
	if m.rolesAssigned {
		return AuditEvent{}, ErrRolesAlreadyAssigned
	}
	m.roles = append([]Role(nil), roles...)
	m.rolesAssigned = true

	return NewAuditEvent(EventAssignRoles, AuditLevelInfo, m, map[string]any{
		"roles": RoleSuffixes(m.roles),
	}), nil
}
