package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const latestPointerFile = "latest.json"

// LocalSnapshotStore persists snapshots as JSON files on the local
// filesystem. Each account gets its own directory under
// <basePath>/snapshots/<accountID>/ with one file per snapshot plus a
// latest.json pointer naming the most recent one.
type LocalSnapshotStore struct {
	basePath string
	mu       sync.Mutex
}

type latestPointer struct {
	SnapshotID string    `json:"snapshotId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewLocalSnapshotStore creates a filesystem-backed snapshot store rooted at
// basePath. The directory is created if it does not exist.
func NewLocalSnapshotStore(basePath string) (*LocalSnapshotStore, error) {
	if basePath == "" {
		basePath = "./storage"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	log.Info().Str("path", basePath).Msg("Local snapshot store initialized")
	return &LocalSnapshotStore{basePath: basePath}, nil
}

func (s *LocalSnapshotStore) accountDir(accountID string) string {
	return filepath.Join(s.basePath, "snapshots", sanitizeAccountID(accountID))
}

// sanitizeAccountID keeps account directories safe to create on any
// filesystem. Account IDs from the Graph API are numeric, so this only
// matters for hand-entered configuration.
func sanitizeAccountID(accountID string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_")
	return replacer.Replace(accountID)
}

// Save writes the snapshot to disk and updates the latest pointer.
func (s *LocalSnapshotStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("cannot save nil snapshot")
	}
	if snapshot.AccountID == "" {
		return fmt.Errorf("snapshot is missing account id")
	}
	if snapshot.ID == "" {
		snapshot.ID = uuid.New().String()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.accountDir(snapshot.AccountID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	path := filepath.Join(dir, snapshot.ID+".json")
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	pointer, err := json.Marshal(latestPointer{SnapshotID: snapshot.ID, CreatedAt: snapshot.CreatedAt})
	if err != nil {
		return fmt.Errorf("failed to marshal latest pointer: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, latestPointerFile), pointer); err != nil {
		return fmt.Errorf("failed to update latest pointer: %w", err)
	}

	log.Debug().
		Str("accountId", snapshot.AccountID).
		Str("snapshotId", snapshot.ID).
		Msg("Snapshot saved to local store")
	return nil
}

// Latest returns the snapshot named by the account's latest pointer.
func (s *LocalSnapshotStore) Latest(ctx context.Context, accountID string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.accountDir(accountID)
	pointerData, err := os.ReadFile(filepath.Join(dir, latestPointerFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read latest pointer: %w", err)
	}

	var pointer latestPointer
	if err := json.Unmarshal(pointerData, &pointer); err != nil {
		return nil, fmt.Errorf("failed to parse latest pointer: %w", err)
	}

	return s.readSnapshot(dir, pointer.SnapshotID)
}

// List returns all snapshots for the account, newest first.
func (s *LocalSnapshotStore) List(ctx context.Context, accountID string) ([]SnapshotInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.accountDir(accountID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var infos []SnapshotInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == latestPointerFile || !strings.HasSuffix(name, ".json") {
			continue
		}
		snapshot, err := s.readSnapshot(dir, strings.TrimSuffix(name, ".json"))
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Skipping unreadable snapshot file")
			continue
		}
		infos = append(infos, SnapshotInfo{
			ID:        snapshot.ID,
			AccountID: snapshot.AccountID,
			CreatedAt: snapshot.CreatedAt,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// Close is a no-op for the local store.
func (s *LocalSnapshotStore) Close() error {
	return nil
}

func (s *LocalSnapshotStore) readSnapshot(dir, id string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", id, err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", id, err)
	}
	return &snapshot, nil
}

// writeFileAtomic writes via a temp file and rename so a crash mid-write
// never leaves a truncated snapshot behind.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
