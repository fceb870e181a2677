package types

import "time"

// TransactionStatus is the financial-event lifecycle state.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionCanceled  TransactionStatus = "canceled"
)

// ReimbursementType classifies how a transaction's cost is recovered.
type ReimbursementType string

const (
	ReimbursementNone    ReimbursementType = "none"
	ReimbursementClient  ReimbursementType = "client"
	ReimbursementBusiness ReimbursementType = "business"
)

// Transaction is a financial event, optionally bound to a project. A nil
// ProjectID means the transaction is business inventory.
type Transaction struct {
	TransactionID string `json:"transactionId"`
	AccountID     string `json:"accountId"`
	ProjectID     string `json:"projectId,omitempty"`
	CreatedBy     string `json:"createdBy"`
	DateCreated   time.Time `json:"dateCreated"`

	Amount                float64           `json:"amount"`
	AllocatedAmount        float64           `json:"allocatedAmount"`
	CategoryID             string            `json:"categoryId"`
	TaxRatePreset          string            `json:"taxRatePreset"`
	TaxRatePct             float64           `json:"taxRatePct"`
	Subtotal               float64           `json:"subtotal"`
	Status                 TransactionStatus `json:"status"`
	Notes                  string            `json:"notes"`
	ItemIDs                []string          `json:"itemIds"`
	NeedsReview            bool              `json:"needsReview"`
	SumItemPurchasePrices  float64           `json:"sumItemPurchasePrices"`
	ReimbursementType      ReimbursementType `json:"reimbursementType"`
	TriggerEvent           string            `json:"triggerEvent"`

	Version      int        `json:"version"`
	LastUpdated  time.Time  `json:"lastUpdated"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// SyncState reports which of the three mutually exclusive sync states this
// transaction is currently in.
func (t *Transaction) SyncState() SyncState {
	return syncStateOf(t.LastSyncedAt, t.LastUpdated)
}
