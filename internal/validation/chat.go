// Package validation checks identifiers received from clients and configuration files.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	chatIDRegex     = regexp.MustCompile(`^[0-9]{17,20}$`)
	roleSuffixRegex = regexp.MustCompile(`^[A-Za-z0-9]+(:[A-Za-z0-9]+)*$`)
)

// ValidateChatID checks that id is a chat platform snowflake.
func ValidateChatID(id string) error {
	if !chatIDRegex.MatchString(id) {
		return fmt.Errorf("chat id must be 17-20 digits")
	}
	if strings.HasPrefix(id, "0") {
		return fmt.Errorf("chat id cannot start with zero")
	}
	return nil
}

// ValidateRoleSuffix checks a role catalog suffix: alphanumeric staff positions separated by
// single colons, e.g. "DIR:ADIR".
func ValidateRoleSuffix(suffix string) error {
	if !roleSuffixRegex.MatchString(suffix) {
		return fmt.Errorf("role suffix %q must be alphanumeric positions separated by ':'", suffix)
	}
	if len(suffix) > 64 {
		return fmt.Errorf("role suffix %q is longer than 64 characters", suffix)
	}
	return nil
}
