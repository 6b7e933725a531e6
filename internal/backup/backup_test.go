package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/models"
	"github.com/julianstephens/habitchain/internal/storage/sqlite"
)

var cal = calendar.New(time.UTC)

// setupTestDB creates a ledger database holding one habit with one completion.
func setupTestDB(t *testing.T) (string, int64) {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "habitchain.db")

	store := sqlite.NewStore(dbPath, cal)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to init ledger: %v", err)
	}
	defer store.Close()

	h, err := store.CreateHabit(ctx, models.Habit{
		Name: "Read", Color: "#3B82F6", Icon: "📚", Frequency: models.Daily(), Target: 1,
	})
	if err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}
	if _, err := store.ToggleCompletion(ctx, h.ID, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("failed to toggle: %v", err)
	}
	return dbPath, h.ID
}

func countCompletions(t *testing.T, dbPath string) int {
	t.Helper()
	store := sqlite.NewStore(dbPath, cal)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("failed to load ledger: %v", err)
	}
	defer store.Close()

	n, err := store.CountAllCompletions(context.Background())
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	return n
}

func TestCreateBackup(t *testing.T) {
	dbPath, _ := setupTestDB(t)

	mgr := NewManager(dbPath, 0)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		t.Errorf("backup file was not created: %s", backupPath)
	}
	if filepath.Dir(backupPath) != mgr.GetBackupDir() {
		t.Errorf("backup written outside %s: %s", mgr.GetBackupDir(), backupPath)
	}
	if n := countCompletions(t, backupPath); n != 1 {
		t.Errorf("expected 1 completion in backup, got %d", n)
	}
}

func TestCreateBackupMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"), 0)
	if _, err := mgr.CreateBackup(); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestBackupRotation(t *testing.T) {
	dbPath, _ := setupTestDB(t)

	const retention = 3
	mgr := NewManager(dbPath, retention)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	tick := 0
	mgr.now = func() time.Time {
		tick++
		return fixed.Add(time.Duration(tick) * time.Second)
	}

	for i := 0; i < retention+4; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != retention {
		t.Fatalf("expected %d backups after rotation, got %d", retention, len(backups))
	}

	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Errorf("backups are not sorted newest first at %d", i)
		}
	}
	if !backups[0].Timestamp.Equal(fixed.Add(time.Duration(retention+4) * time.Second)) {
		t.Errorf("newest backup should survive rotation, got %v", backups[0].Timestamp)
	}
}

func TestSameSecondBackupsGetCounter(t *testing.T) {
	dbPath, _ := setupTestDB(t)

	mgr := NewManager(dbPath, 10)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	mgr.now = func() time.Time { return fixed }

	first, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	second, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if first == second {
		t.Fatal("backups in the same second must get distinct names")
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 2 || backups[0].Path != second {
		t.Errorf("expected counter backup listed first, got %+v", backups)
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name    string
		wantOK  bool
		wantSeq int
	}{
		{"habitchain-20240501-100000.db", true, 0},
		{"habitchain-20240501-100000-3.db", true, 3},
		{"habitchain-20240501-100000-x.db", false, 0},
		{"habitchain-garbage.db", false, 0},
		{"other-20240501-100000.db", false, 0},
		{"habitchain-20240501-100000.sql", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, seq, ok := parseName(tt.name)
			if ok != tt.wantOK || seq != tt.wantSeq {
				t.Errorf("parseName(%q) = (%d, %v), want (%d, %v)", tt.name, seq, ok, tt.wantSeq, tt.wantOK)
			}
		})
	}
}

func TestBackupRestoreWorkflow(t *testing.T) {
	ctx := context.Background()
	dbPath, habitID := setupTestDB(t)

	mgr := NewManager(dbPath, 0)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	// Destroy the data after the backup.
	store := sqlite.NewStore(dbPath, cal)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := store.DeleteHabit(ctx, habitID); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	store.Close()

	if n := countCompletions(t, dbPath); n != 0 {
		t.Fatalf("expected completions gone, got %d", n)
	}

	safety, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if safety == "" {
		t.Error("expected a safety backup of the replaced database")
	}
	if n := countCompletions(t, dbPath); n != 1 {
		t.Errorf("expected restored completion, got %d", n)
	}
	if n := countCompletions(t, safety); n != 0 {
		t.Errorf("safety backup should hold the pre-restore state, got %d", n)
	}
}

func TestRestoreRejectsInvalidBackup(t *testing.T) {
	dbPath, _ := setupTestDB(t)
	mgr := NewManager(dbPath, 0)

	bogus := filepath.Join(t.TempDir(), "habitchain-20240501-100000.db")
	if err := os.WriteFile(bogus, []byte("not a database"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := mgr.RestoreBackup(bogus); err == nil {
		t.Error("expected invalid backup to be rejected")
	}

	if _, err := mgr.RestoreBackup(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected missing backup to be rejected")
	}
}
