package state

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sort"
	"time"

	daprc "github.com/dapr/go-sdk/client"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	defaultStateStoreName = "statestore"

	// Snapshot payloads carry every media item's insights, so allow
	// messages well beyond the gRPC 4MB default.
	maxGRPCMessageSize = 64 * 1024 * 1024
)

// DaprSnapshotStore persists snapshots in a Dapr state store component.
// Each snapshot is stored under its own key, a per-account latest key points
// at the most recent one, and a per-account index key lists all of them.
type DaprSnapshotStore struct {
	client    daprc.Client
	storeName string
}

// NewDaprSnapshotStore connects to the Dapr sidecar over gRPC and returns a
// snapshot store backed by the named state store component.
func NewDaprSnapshotStore(config Config) (*DaprSnapshotStore, error) {
	storeName := defaultStateStoreName
	if config.DaprConfig != nil && config.DaprConfig.StateStoreName != "" {
		storeName = config.DaprConfig.StateStoreName
	}

	daprPort := os.Getenv("DAPR_GRPC_PORT")
	if daprPort == "" {
		daprPort = "50001"
	}

	conn, err := grpc.Dial(
		net.JoinHostPort("127.0.0.1", daprPort),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxGRPCMessageSize),
			grpc.MaxCallSendMsgSize(maxGRPCMessageSize),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to dapr sidecar: %w", err)
	}

	client := daprc.NewClientWithConnection(conn)
	log.Info().Str("stateStore", storeName).Str("daprPort", daprPort).Msg("Dapr snapshot store initialized")

	return &DaprSnapshotStore{client: client, storeName: storeName}, nil
}

func snapshotKey(accountID, snapshotID string) string {
	return fmt.Sprintf("snapshot-%s-%s", accountID, snapshotID)
}

func latestKey(accountID string) string {
	return fmt.Sprintf("snapshot-%s-latest", accountID)
}

func indexKey(accountID string) string {
	return fmt.Sprintf("snapshot-%s-index", accountID)
}

// Save stores the snapshot, updates the latest pointer and appends the
// snapshot to the account index. Pointer and index writes run concurrently
// once the snapshot itself is durable.
func (s *DaprSnapshotStore) Save(ctx context.Context, snapshot *Snapshot) error {
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

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.client.SaveState(ctx, s.storeName, snapshotKey(snapshot.AccountID, snapshot.ID), data, nil); err != nil {
		return fmt.Errorf("failed to save snapshot state: %w", err)
	}

	index, err := s.readIndex(ctx, snapshot.AccountID)
	if err != nil {
		return err
	}
	index = append(index, SnapshotInfo{
		ID:        snapshot.ID,
		AccountID: snapshot.AccountID,
		CreatedAt: snapshot.CreatedAt,
	})
	indexData, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot index: %w", err)
	}
	pointerData, err := json.Marshal(latestPointer{SnapshotID: snapshot.ID, CreatedAt: snapshot.CreatedAt})
	if err != nil {
		return fmt.Errorf("failed to marshal latest pointer: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.client.SaveState(gctx, s.storeName, indexKey(snapshot.AccountID), indexData, nil); err != nil {
			return fmt.Errorf("failed to save snapshot index: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.client.SaveState(gctx, s.storeName, latestKey(snapshot.AccountID), pointerData, nil); err != nil {
			return fmt.Errorf("failed to save latest pointer: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	log.Debug().
		Str("accountId", snapshot.AccountID).
		Str("snapshotId", snapshot.ID).
		Msg("Snapshot saved to dapr store")
	return nil
}

// Latest resolves the account's latest pointer and loads that snapshot.
func (s *DaprSnapshotStore) Latest(ctx context.Context, accountID string) (*Snapshot, error) {
	item, err := s.client.GetState(ctx, s.storeName, latestKey(accountID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest pointer: %w", err)
	}
	if item == nil || len(item.Value) == 0 {
		return nil, ErrNoSnapshot
	}

	var pointer latestPointer
	if err := json.Unmarshal(item.Value, &pointer); err != nil {
		return nil, fmt.Errorf("failed to parse latest pointer: %w", err)
	}

	snapItem, err := s.client.GetState(ctx, s.storeName, snapshotKey(accountID, pointer.SnapshotID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if snapItem == nil || len(snapItem.Value) == 0 {
		return nil, ErrNoSnapshot
	}

	var snapshot Snapshot
	if err := json.Unmarshal(snapItem.Value, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snapshot, nil
}

// List returns the account's snapshot index, newest first.
func (s *DaprSnapshotStore) List(ctx context.Context, accountID string) ([]SnapshotInfo, error) {
	index, err := s.readIndex(ctx, accountID)
	if err != nil {
		return nil, err
	}
	sort.Slice(index, func(i, j int) bool {
		return index[i].CreatedAt.After(index[j].CreatedAt)
	})
	return index, nil
}

// Close closes the underlying Dapr client connection.
func (s *DaprSnapshotStore) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

func (s *DaprSnapshotStore) readIndex(ctx context.Context, accountID string) ([]SnapshotInfo, error) {
	item, err := s.client.GetState(ctx, s.storeName, indexKey(accountID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot index: %w", err)
	}
	if item == nil || len(item.Value) == 0 {
		return nil, nil
	}
	var index []SnapshotInfo
	if err := json.Unmarshal(item.Value, &index); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot index: %w", err)
	}
	return index, nil
}
