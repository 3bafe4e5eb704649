package cli

import (
	"errors"
	"fmt"

	"sheetdesk/internal/mutate"
)

var errNoActor = errors.New("no actor; pass --actor, set SHEETDESK_ACTOR or add 'actor' to config.yaml")

func errNotFound(kind, id string) error {
	return mutate.NotFoundError{Kind: kind, ID: id}
}

type missingFlagError struct {
	flag string
}

func (e missingFlagError) Error() string {
	return fmt.Sprintf("missing --%s", e.flag)
}

func errMissingFlag(flag string) error {
	return missingFlagError{flag: flag}
}
