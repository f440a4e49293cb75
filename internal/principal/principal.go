// Package principal defines the registered identity that snapmail runs
// captures for: a display name, portal credentials, and the address that
// receives the result.
package principal

// Principal is one registered identity. LoginID is the unique key across
// the whole store. Secret and NotifyAddress are required before a
// recurring capture job may be scheduled.
//
// Credentials are held in clear text, in memory and on disk. This is a
// known weakness of the system, not something this package papers over.
type Principal struct {
	DisplayName   string `json:"name"`
	LoginID       string `json:"username"`
	Secret        string `json:"password"`
	NotifyAddress string `json:"email"`
}

// Complete reports whether the principal carries every field required for
// scheduling. DisplayName is cosmetic and intentionally not checked.
func (p Principal) Complete() bool {
	return p.LoginID != "" && p.Secret != "" && p.NotifyAddress != ""
}
