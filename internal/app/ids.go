package app

import "github.com/google/uuid"

func newID() string {
	return uuid.NewString()
}

// validID reports whether id can possibly name a stored row. Malformed ids
// are treated as unknown rather than sent to the store.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
