package hymn

import "fmt"

// ValidationError reports a payload that does not conform to its schema.
// Context names the payload, e.g. "index" or "hymn h001".
type ValidationError struct {
	Context string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Context, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports an id absent from the current index.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("hymn %q not found in index", e.ID)
}

// DataSourceError reports a transport failure, an unmapped file or a
// missing locator.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// SessionExpiredError is returned when the remote API rejects the stored
// credentials. The credentials have already been cleared when it is seen.
type SessionExpiredError struct{}

func (e *SessionExpiredError) Error() string {
	return "session expired, sign in again"
}
