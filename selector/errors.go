package selector

import "errors"

// ErrUnknownStrategy is returned by Registry.Get for a name that was
// never registered.
var ErrUnknownStrategy = errors.New("selector: unknown strategy")

// ErrNoMatch names the case where a Strategy finds no file on the
// appropriate side of the target time. Strategy.Find reports that case by
// returning false; no function in this package returns ErrNoMatch.
var ErrNoMatch = errors.New("selector: no file matches target")
