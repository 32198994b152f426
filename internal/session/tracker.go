// Package session tracks which redesign request is current for each
// (account, UI context) pair so that superseded requests can be discarded.
package session

import (
	"strings"
	"time"
)

// DefaultTTL bounds how long a token stays current without being ended.
const DefaultTTL = 15 * time.Minute

func trackerKey(accountID, uiContext string) string {
	uiContext = strings.TrimSpace(uiContext)
	if uiContext == "" {
		uiContext = "default"
	}
	return "redesign:current:" + accountID + ":" + uiContext
}
