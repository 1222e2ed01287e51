// Package hosts mutates the system hosts file one managed line at a time.
// The file is shared host OS state, so every edit is surgical: whole-token
// matching, a sibling backup before any rewrite, and verification of the
// result before the rewrite is committed.
package hosts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hawkra/hawkra/internal/logging"
)

// Result describes the outcome of a reconcile operation. Every outcome except
// an error return is a success; re-running an operation whose target state
// already holds is a reported no-op.
type Result int

const (
	ResultAdded Result = iota
	ResultAlreadyPresent
	ResultSkipped
	ResultRemoved
	ResultNotFound
)

func (r Result) String() string {
	switch r {
	case ResultAdded:
		return "added"
	case ResultAlreadyPresent:
		return "already present"
	case ResultSkipped:
		return "skipped"
	case ResultRemoved:
		return "removed"
	case ResultNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// File reconciles entries in a hosts file.
type File struct {
	path   string
	logger *logging.Logger
}

// New creates a reconciler for the hosts file at path.
func New(path string) *File {
	return &File{
		path:   path,
		logger: logging.GetLogger(),
	}
}

// BackupPath returns the sibling path used to back up the file before a
// destructive rewrite.
func (f *File) BackupPath() string {
	return f.path + ".bak"
}

// Contains reports whether some line maps the hostname.
func (f *File) Contains(hostname string) (bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false, fmt.Errorf("failed to read hosts file: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if lineMapsHostname(line, hostname) {
			return true, nil
		}
	}
	return false, nil
}

// Ensure adds a line mapping hostname to addr unless some line already maps
// the hostname. The hostname is matched as a whole token, never as a
// substring. An empty addr means no usable address could be determined; the
// entry is skipped with a warning rather than writing a malformed line.
func (f *File) Ensure(hostname, addr string) (Result, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read hosts file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if lineMapsHostname(line, hostname) {
			f.logger.Info("Hosts entry for %s already present", hostname)
			return ResultAlreadyPresent, nil
		}
	}

	if addr == "" {
		f.logger.Warn("No usable host address found; skipping hosts entry for %s", hostname)
		f.logger.Warn("Add a line '<address> %s' to %s manually if name resolution is needed", hostname, f.path)
		return ResultSkipped, nil
	}

	mode := fileMode(f.path)
	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += addr + "\t" + hostname + "\n"

	if err := os.WriteFile(f.path, []byte(content), mode); err != nil {
		return 0, fmt.Errorf("failed to append hosts entry: %w", err)
	}

	f.logger.Info("Added hosts entry: %s %s", addr, hostname)
	return ResultAdded, nil
}

// Remove deletes lines of the exact shape "<address> <hostname>". Lines where
// the hostname shares the line with other names (such as the localhost line)
// are intentionally left untouched; editing them risks breaking unrelated
// mappings. The rewrite is only committed after the filtered content passes
// two checks, and the backup survives until the committed file passes the
// same loopback check again.
func (f *File) Remove(hostname string) (Result, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read hosts file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	kept := make([]string, 0, len(lines))
	removed := 0
	for _, line := range lines {
		if isExclusiveMapping(line, hostname) {
			removed++
			continue
		}
		kept = append(kept, line)
	}

	if removed == 0 {
		f.logger.Info("No hosts entry for %s found; nothing to remove", hostname)
		return ResultNotFound, nil
	}

	mode := fileMode(f.path)
	backup := f.BackupPath()
	if err := os.WriteFile(backup, data, mode); err != nil {
		return 0, fmt.Errorf("failed to back up hosts file: %w", err)
	}

	candidate := strings.Join(kept, "\n")

	// A hosts file is never legitimately empty, and the loopback mapping for
	// localhost must survive any edit. Either violation means the filtered
	// content is wrong: keep the original and the backup for inspection.
	if strings.TrimSpace(candidate) == "" {
		return 0, fmt.Errorf("refusing to commit: removal of %s would empty %s (backup kept at %s)", hostname, f.path, backup)
	}
	if !hasLoopback(candidate) {
		return 0, fmt.Errorf("refusing to commit: removal of %s would drop the localhost mapping from %s (backup kept at %s)", hostname, f.path, backup)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".hosts-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary hosts file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(candidate); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to write temporary hosts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to close temporary hosts file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to set temporary hosts file permissions: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to replace hosts file: %w", err)
	}

	// Re-verify the committed file before discarding the backup.
	written, err := os.ReadFile(f.path)
	if err != nil || !hasLoopback(string(written)) {
		f.logger.Warn("Post-write verification of %s failed; backup retained at %s", f.path, backup)
		return ResultRemoved, nil
	}
	if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("Failed to delete hosts backup %s: %v", backup, err)
	}

	f.logger.Info("Removed hosts entry for %s", hostname)
	return ResultRemoved, nil
}

// lineMapsHostname reports whether the line maps hostname, in any position
// after the address and ignoring trailing comments.
func lineMapsHostname(line, hostname string) bool {
	fields := strings.Fields(stripComment(line))
	if len(fields) < 2 {
		return false
	}
	for _, name := range fields[1:] {
		if name == hostname {
			return true
		}
	}
	return false
}

// isExclusiveMapping reports whether the line maps hostname and nothing else:
// exactly one address token followed by exactly the hostname.
func isExclusiveMapping(line, hostname string) bool {
	fields := strings.Fields(stripComment(line))
	return len(fields) == 2 && fields[1] == hostname
}

// hasLoopback reports whether some line maps localhost from a loopback
// address.
func hasLoopback(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(stripComment(line))
		if len(fields) < 2 {
			continue
		}
		if !isLoopbackAddr(fields[0]) {
			continue
		}
		for _, name := range fields[1:] {
			if name == "localhost" {
				return true
			}
		}
	}
	return false
}

func isLoopbackAddr(addr string) bool {
	return addr == "127.0.0.1" || addr == "::1" || strings.HasPrefix(addr, "127.")
}

func stripComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		return line[:i]
	}
	return line
}

func fileMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return 0644
}
