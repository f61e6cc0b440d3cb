package schemas

import (
	"context"
	"errors"
)

// ErrTargetLost is returned when a cached selector no longer matches any
// live element. Only the browser driver can confirm liveness; the semantic
// model promises the selector was valid as of the snapshot it came from.
var ErrTargetLost = errors.New("target element no longer present on the page")

// PageDriver is the browser-automation collaborator. It supplies point-in-time
// snapshots and turns cached selectors back into operable handles. The
// semantic model core never talks to a browser engine directly.
type PageDriver interface {
	// Snapshot captures the current DOM and accessibility tree together with
	// the page URL. Both views must describe the same page state.
	Snapshot(ctx context.Context) (*PageSnapshot, error)

	// Resolve turns a selector derived from an earlier snapshot into a live
	// target. Returns ErrTargetLost when the selector matches nothing.
	Resolve(ctx context.Context, selector string) (Target, error)
}

// Target is a locatable handle for a resolved element.
type Target interface {
	Click(ctx context.Context) error
	Fill(ctx context.Context, text string) error
}
