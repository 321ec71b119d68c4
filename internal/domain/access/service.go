package access

import "context"

// Service pairs the snapshot store with the pure resolver so transport code
// has a single dependency for access decisions.
type Service struct {
	store    StoreAPI
	resolver *Resolver
}

func NewService(store StoreAPI, resolver *Resolver) *Service {
	return &Service{store: store, resolver: resolver}
}

func (s *Service) Resolver() *Resolver {
	return s.resolver
}

func (s *Service) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	return s.store.SnapshotByUserID(ctx, userID)
}

func (s *Service) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	return s.store.ListActiveUserIDs(ctx)
}
