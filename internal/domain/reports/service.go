package reports

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"hraccess/internal/domain/access"
)

// Row is one user/dashboard line of the periodic user-access review: who can
// reach the dashboard and which operations they hold on it.
type Row struct {
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Roles      string `json:"roles"`
	SuperAdmin bool   `json:"superAdmin"`
	Dashboard  string `json:"dashboard"`
	CanCreate  bool   `json:"canCreate"`
	CanRead    bool   `json:"canRead"`
	CanUpdate  bool   `json:"canUpdate"`
	CanDelete  bool   `json:"canDelete"`
}

type Review struct {
	GeneratedAt time.Time `json:"generatedAt"`
	UserCount   int       `json:"userCount"`
	Rows        []Row     `json:"rows"`
}

type Service struct {
	Access *access.Service
}

func NewService(accessSvc *access.Service) *Service {
	return &Service{Access: accessSvc}
}

// AccessReview resolves the effective grant of every active user against
// every dashboard. The heavy lifting is the resolver; this just folds its
// answers into rows.
func (s *Service) AccessReview(ctx context.Context) (Review, error) {
	userIDs, err := s.Access.ListActiveUserIDs(ctx)
	if err != nil {
		return Review{}, err
	}

	snapshots := make([]*access.Snapshot, 0, len(userIDs))
	for _, userID := range userIDs {
		snap, err := s.Access.Snapshot(ctx, userID)
		if err != nil {
			return Review{}, fmt.Errorf("snapshot for %s: %w", userID, err)
		}
		snapshots = append(snapshots, snap)
	}

	return Review{
		GeneratedAt: time.Now().UTC(),
		UserCount:   len(snapshots),
		Rows:        BuildRows(s.Access.Resolver(), snapshots),
	}, nil
}

// BuildRows is the pure part of the review: one row per accessible
// user/dashboard pair, in config order per user, users sorted by email.
func BuildRows(resolver *access.Resolver, snapshots []*access.Snapshot) []Row {
	ordered := make([]*access.Snapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap != nil && snap.User != nil {
			ordered = append(ordered, snap)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].User.Email < ordered[j].User.Email
	})

	var rows []Row
	for _, snap := range ordered {
		roles := make([]string, 0, len(snap.Roles))
		for _, role := range snap.Roles {
			roles = append(roles, role.Name)
		}
		for _, dashboard := range resolver.AccessibleDashboards(snap) {
			rows = append(rows, Row{
				Email:      snap.User.Email,
				FullName:   snap.User.FullName,
				Roles:      strings.Join(roles, ", "),
				SuperAdmin: snap.User.IsSuperAdmin,
				Dashboard:  dashboard.ID,
				CanCreate:  resolver.CanPerformOperation(snap, dashboard.ID, "", access.OpCreate),
				CanRead:    resolver.CanPerformOperation(snap, dashboard.ID, "", access.OpRead),
				CanUpdate:  resolver.CanPerformOperation(snap, dashboard.ID, "", access.OpUpdate),
				CanDelete:  resolver.CanPerformOperation(snap, dashboard.ID, "", access.OpDelete),
			})
		}
	}
	return rows
}

// CSVRecords flattens a review for the csv writer, header first.
func CSVRecords(review Review) [][]string {
	records := [][]string{{
		"email", "full_name", "roles", "super_admin", "dashboard",
		"create", "read", "update", "delete",
	}}
	for _, row := range review.Rows {
		records = append(records, []string{
			row.Email,
			row.FullName,
			row.Roles,
			strconv.FormatBool(row.SuperAdmin),
			row.Dashboard,
			strconv.FormatBool(row.CanCreate),
			strconv.FormatBool(row.CanRead),
			strconv.FormatBool(row.CanUpdate),
			strconv.FormatBool(row.CanDelete),
		})
	}
	return records
}
