package generic

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDs are ULIDs: sortable by creation time, so listing by id is listing by age.

func newULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

func NewRequestID(t time.Time) RequestID { return RequestID(newULID(t)) }
func NewEventID(t time.Time) EventID     { return EventID(newULID(t)) }
func NewEmployeeID(t time.Time) EmployeeID {
	return EmployeeID(newULID(t))
}
