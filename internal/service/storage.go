package service

import "github.com/maxxwizard/inhousebot/internal/league"

// storageErr wraps an unexpected store failure. Callers never retry; the
// command is reported as failed and the user can resubmit.
func storageErr(err error) error {
	return &league.Error{Kind: league.KindStorageUnavailable, Msg: err.Error()}
}
