package types

import "time"

// ProjectStatus is the lifecycle state of a design project.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// BudgetCategory is a single line in a project's budget breakdown.
type BudgetCategory struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Project is an account-scoped container for items and transactions.
type Project struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	CreatedBy string `json:"createdBy"`
	DateCreated time.Time `json:"dateCreated"`

	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Budget            float64           `json:"budget"`
	DesignFee         float64           `json:"designFee"`
	DefaultCategoryID string            `json:"defaultCategoryId"`
	Status            ProjectStatus     `json:"status"`
	Settings          map[string]string `json:"settings"`
	BudgetCategories  []BudgetCategory  `json:"budgetCategories"`

	Version      int        `json:"version"`
	LastUpdated  time.Time  `json:"lastUpdated"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// SyncState reports which of the three mutually exclusive sync states this
// project is currently in.
func (p *Project) SyncState() SyncState {
	return syncStateOf(p.LastSyncedAt, p.LastUpdated)
}
