package config

import (
	"os"
	"strings"
)

// StrictAttachAllOrNothing flips the attachment engine's partial-failure policy
// from "isolate and log, never fail the owner" to full rollback: any descriptor
// key that fails to materialize aborts the whole attach call (and with it the
// enclosing transaction).
//
// Set via env:
// - STRICT_ATTACH_ALL_OR_NOTHING=true
func StrictAttachAllOrNothing() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_ATTACH_ALL_OR_NOTHING")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
