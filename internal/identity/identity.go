// Package identity canonicalizes transport addresses into phone identifiers.
package identity

import (
	"strings"
)

// Suffixes the messaging network appends to direct-chat addresses. Unknown
// suffixes pass through unchanged so new address forms keep working.
var chatSuffixes = []string{"@c.us", "@s.whatsapp.net"}

const groupSuffix = "@g.us"

// NormalizePhone strips known direct-chat suffixes from a transport-native
// address, yielding a bare phone identifier. Empty input yields empty output.
// The function is idempotent: normalizing twice equals normalizing once.
func NormalizePhone(addr string) string {
	if addr == "" {
		return ""
	}
	for _, suffix := range chatSuffixes {
		if strings.HasSuffix(addr, suffix) {
			return strings.TrimSuffix(addr, suffix)
		}
	}
	return addr
}

// IsGroupAddress reports whether the address denotes a group chat.
// Group chats are rejected before any processing.
func IsGroupAddress(addr string) bool {
	return strings.HasSuffix(addr, groupSuffix)
}
