package frontmatterops

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EnsureUID guarantees fields carries a uid, generating a fresh UUID
// when the key is absent. An existing uid is never replaced.
func EnsureUID(fields map[string]any) (string, bool, error) {
	if fields == nil {
		return "", false, errors.New("fields map is nil")
	}
	if existing, ok := fields[uidField]; ok {
		return strings.TrimSpace(fmt.Sprint(existing)), false, nil
	}
	uid := uuid.NewString()
	fields[uidField] = uid
	return uid, true, nil
}

// EnsureUIDValue is EnsureUID with a caller-chosen value, used when a
// uid must be carried over from another source instead of generated.
func EnsureUIDValue(fields map[string]any, uid string) (bool, error) {
	if fields == nil {
		return false, errors.New("fields map is nil")
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return false, errors.New("uid is empty")
	}
	if _, ok := fields[uidField]; ok {
		return false, nil
	}
	fields[uidField] = uid
	return true, nil
}
