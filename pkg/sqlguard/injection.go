package sqlguard

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// CheckValueForInjection scans a user-supplied value (plot number, road
// number, person name) for SQL injection patterns before it is embedded
// in a lookup statement. Returns a rejection with the libinjection
// fingerprint when a pattern is detected, nil otherwise.
//
// The guarded executor re-validates the full statement anyway; this is a
// defence-in-depth layer on the values themselves.
func CheckValueForInjection(name, value string) error {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if isSQLi {
		return reject("value for %s rejected: injection pattern detected (fingerprint %s)", name, string(fingerprint))
	}
	return nil
}
