package access

import "context"

type StoreAPI interface {
	SnapshotByUserID(ctx context.Context, userID string) (*Snapshot, error)
	ListActiveUserIDs(ctx context.Context) ([]string, error)
}
