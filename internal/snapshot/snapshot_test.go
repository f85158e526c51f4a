package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paywatch/paywatch/internal/snapshot"
)

const csvA = "Date,From,To,Duration,User,Project,Activity,Description,Billable\n" +
	"2025-06-23,09:00,17:00,8:00,alice,Platform,Dev,api work,Yes\n"

const csvB = csvA +
	"2025-06-23,10:00,14:00,4:00,carol,Platform,Dev,reviews,Yes\n"

func TestSaveCreatesVersionOne(t *testing.T) {
	s := snapshot.NewStore(t.TempDir())

	res, err := s.Save("19", []byte(csvA), 1)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !res.Created {
		t.Error("expected Created=true for first save")
	}
	if res.Meta.Version != 1 {
		t.Errorf("version = %d, want 1", res.Meta.Version)
	}
	if res.Meta.ByteSize != len(csvA) {
		t.Errorf("byte size = %d, want %d", res.Meta.ByteSize, len(csvA))
	}
	if res.Meta.RecordCount != 1 {
		t.Errorf("record count = %d, want 1", res.Meta.RecordCount)
	}
	if res.Diff != nil {
		t.Error("expected no diff for first version")
	}
}

func TestSaveIdenticalContentIsIdempotent(t *testing.T) {
	s := snapshot.NewStore(t.TempDir())

	first, err := s.Save("19", []byte(csvA), 1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Save("19", []byte(csvA), 1)
	if err != nil {
		t.Fatal(err)
	}
	if second.Created {
		t.Error("expected Created=false for identical content")
	}
	if second.Meta.Checksum != first.Meta.Checksum {
		t.Errorf("checksum changed: %s vs %s", second.Meta.Checksum, first.Meta.Checksum)
	}

	versions, err := s.Versions("19")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 1 {
		t.Fatalf("versions = %d, want 1", len(versions))
	}
}

func TestSaveNewContentIncrementsVersion(t *testing.T) {
	s := snapshot.NewStore(t.TempDir())

	if _, err := s.Save("19", []byte(csvA), 1); err != nil {
		t.Fatal(err)
	}
	res, err := s.Save("19", []byte(csvB), 2)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Created || res.Meta.Version != 2 {
		t.Fatalf("expected created version 2, got created=%v version=%d", res.Created, res.Meta.Version)
	}

	// Version 1 content must be untouched.
	v1, err := s.Content("19", 1)
	if err != nil {
		t.Fatal(err)
	}
	if string(v1) != csvA {
		t.Error("version 1 content was modified")
	}
}

func TestSaveDiffReportsAddedRecord(t *testing.T) {
	s := snapshot.NewStore(t.TempDir())

	if _, err := s.Save("19", []byte(csvA), 1); err != nil {
		t.Fatal(err)
	}
	res, err := s.Save("19", []byte(csvB), 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Diff == nil {
		t.Fatal("expected a diff for version 2")
	}
	if len(res.Diff.Added) != 1 || len(res.Diff.Removed) != 0 {
		t.Fatalf("diff added=%d removed=%d, want 1/0", len(res.Diff.Added), len(res.Diff.Removed))
	}
	if got := res.Diff.Added[0]; got != "2025-06-23,10:00,14:00,4:00,carol,Platform,Dev,reviews,Yes" {
		t.Errorf("added record = %q", got)
	}
	if len(res.Diff.UserDeltas) != 1 {
		t.Fatalf("user deltas = %d, want 1", len(res.Diff.UserDeltas))
	}
	d := res.Diff.UserDeltas[0]
	if d.User != "carol" || d.Change != 4.0 {
		t.Errorf("delta = %+v, want carol +4.0", d)
	}
}

func TestReadsOnMissingPeriod(t *testing.T) {
	s := snapshot.NewStore(t.TempDir())

	latest, err := s.Latest("99")
	if err != nil || latest != nil {
		t.Errorf("Latest on missing period = (%v, %v), want (nil, nil)", latest, err)
	}
	v, err := s.Version("99", 1)
	if err != nil || v != nil {
		t.Errorf("Version on missing period = (%v, %v), want (nil, nil)", v, err)
	}
	versions, err := s.Versions("99")
	if err != nil || versions != nil {
		t.Errorf("Versions on missing period = (%v, %v), want (nil, nil)", versions, err)
	}
	content, err := s.Content("99", 1)
	if err != nil || content != nil {
		t.Errorf("Content on missing period = (%v, %v), want (nil, nil)", content, err)
	}
}

func TestLatestAndVersion(t *testing.T) {
	s := snapshot.NewStore(t.TempDir())

	if _, err := s.Save("19", []byte(csvA), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("19", []byte(csvB), 2); err != nil {
		t.Fatal(err)
	}

	latest, err := s.Latest("19")
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.Version != 2 {
		t.Fatalf("latest = %+v, want version 2", latest)
	}
	v1, err := s.Version("19", 1)
	if err != nil {
		t.Fatal(err)
	}
	if v1 == nil || v1.Version != 1 {
		t.Fatalf("version 1 = %+v", v1)
	}
	if v3, _ := s.Version("19", 3); v3 != nil {
		t.Errorf("version 3 should be absent, got %+v", v3)
	}
}

func TestReconcileOrphanedVersion(t *testing.T) {
	base := t.TempDir()
	s := snapshot.NewStore(base)

	if _, err := s.Save("19", []byte(csvA), 1); err != nil {
		t.Fatal(err)
	}

	// Simulate a crash between content write and index update: a v002 file
	// exists that the index does not know about.
	orphan := filepath.Join(base, "period-19", "v002.csv")
	if err := os.WriteFile(orphan, []byte(csvB), 0o600); err != nil {
		t.Fatal(err)
	}

	latest, err := s.Latest("19")
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.Version != 2 {
		t.Fatalf("latest after reconcile = %+v, want version 2", latest)
	}

	// The next save continues from the repaired version number.
	res, err := s.Save("19", []byte(csvA+"extra\n"), 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Meta.Version != 3 {
		t.Errorf("version after reconcile = %d, want 3", res.Meta.Version)
	}
}

func TestCorruptIndexBackedUp(t *testing.T) {
	base := t.TempDir()
	s := snapshot.NewStore(base)

	if _, err := s.Save("19", []byte(csvA), 1); err != nil {
		t.Fatal(err)
	}
	indexPath := filepath.Join(base, "period-19", "index.json")
	if err := os.WriteFile(indexPath, []byte("{bad json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Latest("19"); err == nil {
		t.Fatal("expected error for corrupt index")
	}
	if _, err := os.Stat(indexPath + ".corrupt"); os.IsNotExist(err) {
		t.Error("expected corrupt index to be backed up")
	}
}

func TestWriteReport(t *testing.T) {
	base := t.TempDir()
	s := snapshot.NewStore(base)

	if _, err := s.Save("19", []byte(csvA), 1); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteReport("19", 1, "report body\n"); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(base, "period-19", "v001_report.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "report body\n" {
		t.Errorf("report content = %q", data)
	}
}

func TestDiffIgnoresReordering(t *testing.T) {
	header := "Date,From,To,Duration,User,Project,Activity,Description,Billable\n"
	l1 := "2025-06-23,09:00,17:00,8:00,alice,P,A,x,Yes"
	l2 := "2025-06-23,10:00,12:00,2:00,bob,P,A,y,Yes"

	d := snapshot.Diff("19", 1, 2, []byte(header+l1+"\n"+l2+"\n"), []byte(header+l2+"\n"+l1+"\n"))
	if len(d.Added) != 0 || len(d.Removed) != 0 {
		t.Errorf("reordered identical lines should diff empty, got +%d -%d", len(d.Added), len(d.Removed))
	}
	if len(d.UserDeltas) != 0 {
		t.Errorf("expected no hour changes, got %+v", d.UserDeltas)
	}
}

func TestDiffDeltaSortedByMagnitude(t *testing.T) {
	header := "Date,From,To,Duration,User,Project,Activity,Description,Billable\n"
	oldC := header +
		"2025-06-23,09:00,17:00,8:00,alice,P,A,x,Yes\n" +
		"2025-06-23,09:00,17:00,8:00,bob,P,A,x,Yes\n"
	newC := header +
		"2025-06-23,09:00,16:00,7:00,alice,P,A,x,Yes\n" +
		"2025-06-23,09:00,12:00,3:00,bob,P,A,x,Yes\n"

	d := snapshot.Diff("19", 1, 2, []byte(oldC), []byte(newC))
	if len(d.UserDeltas) != 2 {
		t.Fatalf("deltas = %d, want 2", len(d.UserDeltas))
	}
	if d.UserDeltas[0].User != "bob" || d.UserDeltas[0].Change != -5.0 {
		t.Errorf("first delta = %+v, want bob -5.0", d.UserDeltas[0])
	}
	if d.UserDeltas[1].User != "alice" || d.UserDeltas[1].Change != -1.0 {
		t.Errorf("second delta = %+v, want alice -1.0", d.UserDeltas[1])
	}
}
