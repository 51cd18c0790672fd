package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"research2crossref/internal/fileutil"
)

// Entry is one registration recorded in the ledger.
type Entry struct {
	CrisID         string
	RegistrationID string
	CreatedAt      time.Time
}

type key struct {
	crisID         string
	registrationID string
}

// Ledger is the append-only record of successful deposits. It is the sole
// source of truth for whether a (cris id, registration id) pair was already
// submitted by an earlier run.
type Ledger struct {
	mu      sync.Mutex
	path    string
	seen    map[key]struct{}
	entries []Entry
	// validSize is the byte length of the complete lines known to be in the
	// file. Anything past it is a torn append and is cut before the next one.
	validSize int64
}

// Open loads the ledger at path. A missing file is an empty ledger.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		path: path,
		seen: make(map[key]struct{}),
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	lineNo := 0
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		if errors.Is(err, io.EOF) {
			// A non-empty line here is a crash mid-append; it is dropped on
			// the next Record.
			break
		}
		lineNo++
		l.validSize += int64(len(line))
		entry, ok, perr := parseLine(strings.TrimRight(line, "\r\n"))
		if perr != nil {
			return nil, fmt.Errorf("ledger line %d: %w", lineNo, perr)
		}
		if ok {
			l.add(entry)
		}
	}
	return l, nil
}

func parseLine(line string) (Entry, bool, error) {
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
		return Entry{}, false, nil
	}
	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return Entry{}, false, fmt.Errorf("expected at least 2 tab separated fields, got %d", len(fields))
	}
	entry := Entry{
		CrisID:         strings.TrimSpace(fields[0]),
		RegistrationID: strings.TrimSpace(fields[1]),
	}
	if entry.CrisID == "" || entry.RegistrationID == "" {
		return Entry{}, false, fmt.Errorf("empty identifier")
	}
	if len(fields) >= 3 && strings.TrimSpace(fields[2]) != "" {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[2]))
		if err != nil {
			return Entry{}, false, fmt.Errorf("parse created_at: %w", err)
		}
		entry.CreatedAt = ts
	}
	return entry, true, nil
}

func (l *Ledger) add(entry Entry) bool {
	k := key{entry.CrisID, entry.RegistrationID}
	if _, ok := l.seen[k]; ok {
		return false
	}
	l.seen[k] = struct{}{}
	l.entries = append(l.entries, entry)
	return true
}

// Path returns the backing file location.
func (l *Ledger) Path() string {
	return l.path
}

// AlreadySubmitted reports whether the pair was recorded before.
func (l *Ledger) AlreadySubmitted(crisID, registrationID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[key{strings.TrimSpace(crisID), strings.TrimSpace(registrationID)}]
	return ok
}

// Record appends the pair and fsyncs before returning. Recording a pair
// that is already present is a no-op.
func (l *Ledger) Record(crisID, registrationID string, when time.Time) error {
	crisID = strings.TrimSpace(crisID)
	registrationID = strings.TrimSpace(registrationID)
	if crisID == "" || registrationID == "" {
		return fmt.Errorf("ledger record: cris id and registration id are required")
	}
	if strings.ContainsAny(crisID+registrationID, "\t\r\n") {
		return fmt.Errorf("ledger record: identifiers must not contain tabs or newlines")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	k := key{crisID, registrationID}
	if _, ok := l.seen[k]; ok {
		return nil
	}

	entry := Entry{CrisID: crisID, RegistrationID: registrationID, CreatedAt: when.UTC().Truncate(time.Second)}
	line := strings.Join([]string{crisID, registrationID, entry.CreatedAt.Format(time.RFC3339)}, "\t")
	if err := l.dropTornTail(); err != nil {
		return err
	}
	if err := fileutil.AppendLine(l.path, line, 0o644); err != nil {
		return fmt.Errorf("ledger append: %w", err)
	}
	l.validSize += int64(len(line)) + 1
	l.add(entry)
	return nil
}

// dropTornTail truncates bytes past the last complete line, left by a
// crash or a failed append.
func (l *Ledger) dropTornTail() error {
	info, err := os.Stat(l.path)
	if errors.Is(err, os.ErrNotExist) {
		l.validSize = 0
		return nil
	}
	if err != nil {
		return fmt.Errorf("ledger stat: %w", err)
	}
	if info.Size() <= l.validSize {
		return nil
	}
	if err := os.Truncate(l.path, l.validSize); err != nil {
		return fmt.Errorf("ledger drop torn line: %w", err)
	}
	return nil
}

// Entries returns a copy of all entries in file order.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of distinct recorded pairs.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
