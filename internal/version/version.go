// ABOUTME: Build identity constants
// ABOUTME: Used by the TUI header and the mDNS TXT record
package version

const (
	Product      = "Scream Receiver"
	Manufacturer = "Scream"
	Version      = "0.1.0"
)
