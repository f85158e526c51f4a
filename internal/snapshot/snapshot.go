package snapshot

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Store persists immutable, checksummed snapshot versions per pay period.
// Versions are append-only: Save never overwrites existing content, and a
// re-extraction whose content matches the latest version is a no-op.
//
// The read-latest-then-write-next sequence is not safe for concurrent writers
// of the same period; the bot runs one extraction per period at a time.
type Store struct {
	base string
}

// VersionMeta is one row of a period's version index.
type VersionMeta struct {
	Version     int       `json:"version"`
	ExtractedAt time.Time `json:"extracted_at"`
	Checksum    string    `json:"checksum"` // sha256 hex of the raw content
	RecordCount int       `json:"record_count"`
	ByteSize    int       `json:"byte_size"`
	RunID       string    `json:"run_id"`
}

// periodIndex is the per-period metadata file, index.json.
type periodIndex struct {
	PeriodID string        `json:"period_id"`
	Latest   int           `json:"latest"`
	Versions []VersionMeta `json:"versions"`
}

// SaveResult reports what Save did. Created is false when the content matched
// the latest stored version; Diff is set only for a newly created version
// that has a predecessor.
type SaveResult struct {
	Meta    VersionMeta
	Created bool
	Diff    *DiffReport
}

// DefaultBaseDir returns the snapshot root under the user's home directory.
func DefaultBaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".paywatch", "snapshots"), nil
}

// NewStore creates a store rooted at base.
func NewStore(base string) *Store {
	return &Store{base: base}
}

func (s *Store) periodDir(periodID string) string {
	return filepath.Join(s.base, "period-"+periodID)
}

func (s *Store) indexPath(periodID string) string {
	return filepath.Join(s.periodDir(periodID), "index.json")
}

func (s *Store) contentPath(periodID string, version int) string {
	return filepath.Join(s.periodDir(periodID), fmt.Sprintf("v%03d.csv", version))
}

// newRunID creates a unique extraction run ID from timestamp and random suffix.
func newRunID(t time.Time) string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffix := make([]byte, 5)
	for i := range suffix {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		suffix[i] = chars[n.Int64()]
	}
	return fmt.Sprintf("%s-%s", t.Format("20060102-150405"), string(suffix))
}

// Save stores rawContent as the next version of periodID, or returns the
// latest version unchanged when the content is byte-identical to it.
func (s *Store) Save(periodID string, rawContent []byte, recordCount int) (SaveResult, error) {
	idx, err := s.loadIndex(periodID)
	if err != nil {
		return SaveResult{}, err
	}

	sum := sha256.Sum256(rawContent)
	checksum := hex.EncodeToString(sum[:])

	if idx.Latest > 0 {
		last := idx.Versions[len(idx.Versions)-1]
		if last.Checksum == checksum {
			return SaveResult{Meta: last, Created: false}, nil
		}
	}

	now := time.Now()
	meta := VersionMeta{
		Version:     idx.Latest + 1,
		ExtractedAt: now,
		Checksum:    checksum,
		RecordCount: recordCount,
		ByteSize:    len(rawContent),
		RunID:       newRunID(now),
	}

	// Content first, index second: a crash in between leaves an orphaned
	// version file that loadIndex reconciles on the next call.
	if err := atomicWrite(s.contentPath(periodID, meta.Version), rawContent); err != nil {
		return SaveResult{}, fmt.Errorf("storage error writing version %d for period %s: %w", meta.Version, periodID, err)
	}

	var diff *DiffReport
	if idx.Latest > 0 {
		prev, err := s.Content(periodID, idx.Latest)
		if err == nil && prev != nil {
			diff = Diff(periodID, idx.Latest, meta.Version, prev, rawContent)
		}
	}

	idx.PeriodID = periodID
	idx.Latest = meta.Version
	idx.Versions = append(idx.Versions, meta)
	if err := s.writeIndex(periodID, idx); err != nil {
		return SaveResult{}, err
	}

	return SaveResult{Meta: meta, Created: true, Diff: diff}, nil
}

// Latest returns the newest version's metadata, or nil when the period has
// no snapshots yet. Absence is expected steady state, not an error.
func (s *Store) Latest(periodID string) (*VersionMeta, error) {
	idx, err := s.loadIndex(periodID)
	if err != nil {
		return nil, err
	}
	if idx.Latest == 0 {
		return nil, nil
	}
	meta := idx.Versions[len(idx.Versions)-1]
	return &meta, nil
}

// Version returns metadata for a specific version, or nil when absent.
func (s *Store) Version(periodID string, version int) (*VersionMeta, error) {
	idx, err := s.loadIndex(periodID)
	if err != nil {
		return nil, err
	}
	for _, m := range idx.Versions {
		if m.Version == version {
			meta := m
			return &meta, nil
		}
	}
	return nil, nil
}

// Versions returns all version metadata in ascending order; nil when none.
func (s *Store) Versions(periodID string) ([]VersionMeta, error) {
	idx, err := s.loadIndex(periodID)
	if err != nil {
		return nil, err
	}
	return idx.Versions, nil
}

// Content returns the raw bytes of a stored version, or nil when absent.
func (s *Store) Content(periodID string, version int) ([]byte, error) {
	data, err := os.ReadFile(s.contentPath(periodID, version))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading version %d for period %s: %w", version, periodID, err)
	}
	return data, nil
}

// WriteReport stores a generated report next to its snapshot version.
func (s *Store) WriteReport(periodID string, version int, report string) error {
	path := filepath.Join(s.periodDir(periodID), fmt.Sprintf("v%03d_report.txt", version))
	if err := atomicWrite(path, []byte(report)); err != nil {
		return fmt.Errorf("storage error writing report for period %s v%d: %w", periodID, version, err)
	}
	return nil
}

// loadIndex reads a period's index, then reconciles any orphaned version
// files (content written but index update lost) by re-checksumming them and
// appending their metadata.
func (s *Store) loadIndex(periodID string) (periodIndex, error) {
	path := s.indexPath(periodID)
	idx := periodIndex{PeriodID: periodID}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return periodIndex{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	if err == nil {
		if uerr := json.Unmarshal(data, &idx); uerr != nil {
			// Back up corrupt index and abort.
			backupPath := path + ".corrupt"
			_ = os.Rename(path, backupPath)
			return periodIndex{}, fmt.Errorf("corrupt index %s (backed up to %s): %w", path, backupPath, uerr)
		}
	}

	repaired, err := s.reconcile(periodID, &idx)
	if err != nil {
		return periodIndex{}, err
	}
	if repaired {
		if err := s.writeIndex(periodID, idx); err != nil {
			return periodIndex{}, err
		}
	}
	return idx, nil
}

// reconcile scans the period directory for version files newer than the
// index claims and adopts them. Reports whether the index changed.
func (s *Store) reconcile(periodID string, idx *periodIndex) (bool, error) {
	matches, err := filepath.Glob(filepath.Join(s.periodDir(periodID), "v*.csv"))
	if err != nil {
		return false, fmt.Errorf("storage error scanning period %s: %w", periodID, err)
	}

	var orphans []int
	for _, m := range matches {
		var v int
		if _, err := fmt.Sscanf(filepath.Base(m), "v%03d.csv", &v); err != nil {
			continue
		}
		if v > idx.Latest {
			orphans = append(orphans, v)
		}
	}
	if len(orphans) == 0 {
		return false, nil
	}
	sort.Ints(orphans)

	for _, v := range orphans {
		path := s.contentPath(periodID, v)
		data, err := os.ReadFile(path)
		if err != nil {
			return false, fmt.Errorf("storage error reading orphaned version %s: %w", path, err)
		}
		sum := sha256.Sum256(data)
		extractedAt := time.Now()
		if fi, err := os.Stat(path); err == nil {
			extractedAt = fi.ModTime()
		}
		idx.Versions = append(idx.Versions, VersionMeta{
			Version:     v,
			ExtractedAt: extractedAt,
			Checksum:    hex.EncodeToString(sum[:]),
			ByteSize:    len(data),
			RunID:       newRunID(extractedAt),
		})
		idx.Latest = v
	}
	return true, nil
}

func (s *Store) writeIndex(periodID string, idx periodIndex) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling index: %w", err)
	}
	if err := atomicWrite(s.indexPath(periodID), data); err != nil {
		return fmt.Errorf("storage error writing index for period %s: %w", periodID, err)
	}
	return nil
}

// atomicWrite writes to a temp file and renames it into place.
func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
