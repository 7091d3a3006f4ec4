// internal/app/system/onboarding/assign.go
package onboarding

import (
	"context"
	"sort"

	"github.com/aloria/backoffice/internal/domain/models"
)

// EmployeeAssigner picks the employee a new client is assigned to when no
// explicit choice was made. It returns nil when there is no one to pick.
type EmployeeAssigner interface {
	Pick(ctx context.Context) (*models.UserID, error)
}

// EmployeeSource lists the active employees. userstore.Store satisfies it.
type EmployeeSource interface {
	ActiveIDsByRole(ctx context.Context, roles ...string) ([]models.UserID, error)
}

// LoadCounter counts clients per employee. clientstore.Store satisfies it.
type LoadCounter interface {
	CountByEmployee(ctx context.Context, ids []models.UserID) (map[models.UserID]int64, error)
}

// LeastLoaded assigns the active employee with the fewest clients.
// Ties go to the lowest id, which is the longest-standing account.
type LeastLoaded struct {
	Employees EmployeeSource
	Load      LoadCounter
}

func (l LeastLoaded) Pick(ctx context.Context) (*models.UserID, error) {
	ids, err := l.Employees.ActiveIDsByRole(ctx, models.RoleEmployee)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	counts, err := l.Load.CountByEmployee(ctx, ids)
	if err != nil {
		return nil, err
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
	best := ids[0]
	for _, id := range ids[1:] {
		if counts[id] < counts[best] {
			best = id
		}
	}
	return &best, nil
}
