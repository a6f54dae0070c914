// Package journal persists analysis results as an append-only JSON Lines
// file inside the workspace.
package journal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/risk"
)

const (
	fileName = "analyses.jsonl"
	lockName = "analyses.lock"

	maxLineBytes = 16 << 20
)

// Record is one journaled analysis.
type Record struct {
	ID         string          `json:"id" yaml:"id"`
	Tier       analysis.Tier   `json:"tier" yaml:"tier"`
	Source     string          `json:"source" yaml:"source"`
	AnalyzedAt time.Time       `json:"analyzed_at" yaml:"analyzed_at"`
	DeviceID   string          `json:"device_id" yaml:"device_id"`
	RiskScore  *int            `json:"risk_score,omitempty" yaml:"risk_score,omitempty"`
	Flags      map[string]bool `json:"flags" yaml:"flags"`
	Report     string          `json:"report" yaml:"report"`
	Document   json.RawMessage `json:"document,omitempty" yaml:"-"`
}

// NativeRecord builds a record from a native outcome.
func NativeRecord(source string, out analysis.NativeOutcome) (Record, error) {
	doc, err := json.Marshal(out.Document)
	if err != nil {
		return Record{}, fmt.Errorf("encode native document: %w", err)
	}
	score := out.Result.RiskScore
	return Record{
		Tier:      analysis.TierNative,
		Source:    source,
		DeviceID:  out.Result.NativeDeviceID,
		RiskScore: &score,
		Flags: map[string]bool{
			"is_emulator":          out.Result.IsEmulator,
			"is_rooted":            out.Result.IsRooted,
			"is_debug_mode":        out.Result.IsDebugMode,
			"has_zygisk_injection": out.Result.HasZygiskInjection,
		},
		Report:   out.Result.RiskReport,
		Document: doc,
	}, nil
}

// PlatformRecord builds a record from a platform outcome. Platform
// results carry no score.
func PlatformRecord(source string, out analysis.PlatformOutcome) (Record, error) {
	doc, err := json.Marshal(out.Document)
	if err != nil {
		return Record{}, fmt.Errorf("encode platform document: %w", err)
	}
	return Record{
		Tier:     analysis.TierPlatform,
		Source:   source,
		DeviceID: out.Result.DeviceID,
		Flags: map[string]bool{
			"is_emulator":   out.Assessment.Flagged(risk.CategoryEmulator),
			"is_debug_mode": out.Assessment.Flagged(risk.CategoryDebug),
		},
		Report:   out.Result.RiskReport,
		Document: doc,
	}, nil
}

// Journal appends and reads records. Access is serialized within the
// process by a mutex and across processes by a file lock; both share one
// lock handle, so reads cannot overlap a local write.
type Journal struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
	now  func() time.Time
}

// Open prepares a journal in dir.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	return &Journal{
		path: filepath.Join(dir, fileName),
		lock: flock.New(filepath.Join(dir, lockName)),
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string { return j.path }

// Append assigns an ID and timestamp when missing and writes rec as one
// line.
func (j *Journal) Append(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.AnalyzedAt.IsZero() {
		rec.AnalyzedAt = j.now()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.lock.Lock(); err != nil {
		return fmt.Errorf("lock journal: %w", err)
	}
	defer func() { _ = j.lock.Unlock() }()

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write journal: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}

	log.Debug().
		Str("component", "journal").
		Str("id", rec.ID).
		Str("tier", string(rec.Tier)).
		Msg("Record appended")
	return nil
}

// List returns up to limit records, newest first. A limit of zero or less
// returns every record.
func (j *Journal) List(ctx context.Context, limit int) ([]Record, error) {
	var records []Record
	err := j.scan(ctx, func(rec Record) bool {
		records = append(records, rec)
		return true
	})
	if err != nil {
		return nil, err
	}

	for i, k := 0, len(records)-1; i < k; i, k = i+1, k-1 {
		records[i], records[k] = records[k], records[i]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Get returns the record with id, or a *NotFoundError.
func (j *Journal) Get(ctx context.Context, id string) (*Record, error) {
	var found *Record
	err := j.scan(ctx, func(rec Record) bool {
		if rec.ID == id {
			found = &rec
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, &NotFoundError{ResourceType: "record", ResourceID: id}
	}
	return found, nil
}

// scan visits records in file order until visit returns false. Corrupt
// lines are skipped.
func (j *Journal) scan(ctx context.Context, visit func(Record) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.lock.RLock(); err != nil {
		return fmt.Errorf("lock journal: %w", err)
	}
	defer func() { _ = j.lock.Unlock() }()

	f, err := os.Open(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Debug().
				Str("component", "journal").
				Int("line", lineNo).
				Err(err).
				Msg("Skipping corrupt record")
			continue
		}
		if !visit(rec) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	return nil
}
