package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	maxNameAttempts = 100
	maxBaseNameLen  = 180
)

var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}._ ()\-]+`)

// SanitizeName reduces an uploaded filename to a safe base name.
// Directory parts are dropped and anything outside letters, digits and ._ ()-
// becomes '_'. Names with nothing meaningful left become "file".
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.TrimSpace(name)
	if strings.Trim(name, "._ ") == "" {
		return "file"
	}
	if len(name) > maxBaseNameLen {
		ext := path.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = strings.ToValidUTF8(name[:maxBaseNameLen-len(ext)], "") + ext
	}
	return name
}

// ResolveDir makes dir absolute and creates it when missing.
func ResolveDir(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("upload directory is not configured")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o775); err != nil {
		return "", fmt.Errorf("create upload dir %s: %w", abs, err)
	}
	return abs, nil
}

// createUnique creates a new file named <millis>-<sanitized name> in dir.
// An existing name is never overwritten: the next free <millis>-<n>-<name> is used instead.
func createUnique(dir string, now time.Time, original string) (*os.File, string, error) {
	base := SanitizeName(original)
	stamp := strconv.FormatInt(now.UnixMilli(), 10)
	for i := 0; i < maxNameAttempts; i++ {
		name := stamp + "-" + base
		if i > 0 {
			name = stamp + "-" + strconv.Itoa(i) + "-" + base
		}
		p := filepath.Join(dir, name)
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, p, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free file name for %q after %d attempts", base, maxNameAttempts)
}
