// Package types defines the entities, operation payloads, and conflict
// records shared across the synchronization engine.
package types

import "time"

// InventoryStatus is the disposition lifecycle state of an Item.
type InventoryStatus string

const (
	InventoryStatusAvailable InventoryStatus = "available"
	InventoryStatusAllocated InventoryStatus = "allocated"
	InventoryStatusSold      InventoryStatus = "sold"
	InventoryStatusArchived  InventoryStatus = "archived"
)

// Item is a user-visible inventory record. ItemID is the stable business key
// used to match local and server rows during conflict detection.
type Item struct {
	// Immutable fields — set at creation, never conflict-compared.
	ItemID              string `json:"itemId"`
	AccountID           string `json:"accountId"`
	QRKey               string `json:"qrKey"`
	CreatedBy           string `json:"createdBy"`
	DateCreated         time.Time `json:"dateCreated"`
	OriginTransactionID string `json:"originTransactionId,omitempty"`

	// Mutable fields — whitelisted for conflict comparison, see FieldsForItem.
	Name                   string  `json:"name"`
	Description            string  `json:"description"`
	Source                 string  `json:"source"`
	SKU                    string  `json:"sku"`
	Price                  float64 `json:"price"`
	PurchasePrice          float64 `json:"purchasePrice"`
	ProjectPrice           float64 `json:"projectPrice"`
	MarketValue            float64 `json:"marketValue"`
	PaymentMethod          string  `json:"paymentMethod"`
	Disposition            string  `json:"disposition"`
	Notes                  string  `json:"notes"`
	Space                  string  `json:"space"`
	TaxRatePct             float64 `json:"taxRatePct"`
	TaxAmountPurchasePrice float64 `json:"taxAmountPurchasePrice"`
	TaxAmountProjectPrice  float64 `json:"taxAmountProjectPrice"`
	Bookmark               bool            `json:"bookmark"`
	InventoryStatus         InventoryStatus `json:"inventoryStatus"`
	BusinessInventoryLocation string        `json:"businessInventoryLocation"`

	// Relational fields — moved via explicit assignment operations, never diffed.
	ProjectID           string `json:"projectId,omitempty"`
	TransactionID       string `json:"transactionId,omitempty"`
	LatestTransactionID string `json:"latestTransactionId,omitempty"`

	// Engine-managed bookkeeping.
	Version      int        `json:"version"`
	LastUpdated  time.Time  `json:"lastUpdated"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// SyncState reports which of the three mutually exclusive sync states (§3
// Invariant 1) this item is currently in.
func (it *Item) SyncState() SyncState {
	return syncStateOf(it.LastSyncedAt, it.LastUpdated)
}
