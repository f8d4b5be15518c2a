// Package moderation presents captured posts to the moderator, applies
// approve and reject decisions and publishes approved posts.
package moderation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnauthorized is returned when a callback comes from anyone but the moderator.
	ErrUnauthorized = errors.New("sender is not the moderator")
	// ErrMalformedAction is returned for unknown actions and non-numeric post ids.
	ErrMalformedAction = errors.New("malformed moderation action")
)

// Action is a moderator decision.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// CallbackData encodes an action on a post as inline button data.
func CallbackData(a Action, postID int64) string {
	return fmt.Sprintf("%s:%d", a, postID)
}

// ParseAction decodes inline button data of the form "action:id".
func ParseAction(data string) (Action, int64, error) {
	name, rawID, ok := strings.Cut(data, ":")
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedAction, data)
	}
	a := Action(name)
	if a != ActionApprove && a != ActionReject {
		return "", 0, fmt.Errorf("%w: unknown action %q", ErrMalformedAction, name)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("%w: bad post id %q", ErrMalformedAction, rawID)
	}
	return a, id, nil
}
