// internal/application/migration/credentials.go
package migration

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrCredentialsMissing means the service account file is not there. It is
// checked before any client is built so a misconfigured run does no I/O.
var ErrCredentialsMissing = errors.New("migration: credentials file not found")

// CheckCredentials verifies that path names a readable regular file.
func CheckCredentials(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%w: no path given", ErrCredentialsMissing)
	}
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrCredentialsMissing, path)
		}
		return fmt.Errorf("%w: %s: %v", ErrCredentialsMissing, path, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrCredentialsMissing, path)
	}
	return nil
}
