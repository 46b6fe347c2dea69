package store

import (
	"context"

	"github.com/yangwenmai/lexdraft/internal/model"
)

// ActionCount holds the number of activities recorded for one action.
type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// ActivityWriter persists audit events.
type ActivityWriter interface {
	CreateActivity(ctx context.Context, a *model.Activity) error
}

// ActivityReader provides read access to audit events.
type ActivityReader interface {
	ListActivities(ctx context.Context, f model.ActivityFilter) ([]model.Activity, error)
	CountByAction(ctx context.Context, userID string) ([]ActionCount, error)
}
