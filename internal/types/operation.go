package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// OperationType tags the intent carried by a queued Operation. Unknown
// variants are a programming error, never a runtime recovery path — see
// DecodePayload.
type OperationType string

const (
	OpCreateItem              OperationType = "CREATE_ITEM"
	OpUpdateItem              OperationType = "UPDATE_ITEM"
	OpDeleteItem              OperationType = "DELETE_ITEM"
	OpAssignItemToTransaction OperationType = "ASSIGN_ITEM_TO_TRANSACTION"
	OpUnlinkItemFromTransaction OperationType = "UNLINK_ITEM_FROM_TRANSACTION"
	OpAllocateItemToProject   OperationType = "ALLOCATE_ITEM_TO_PROJECT"
	OpDeallocateItem          OperationType = "DEALLOCATE_ITEM"
	OpMoveItemToBusinessInventory OperationType = "MOVE_ITEM_TO_BUSINESS_INVENTORY"
	OpSellItemToProject       OperationType = "SELL_ITEM_TO_PROJECT"
	OpCreateTransaction       OperationType = "CREATE_TRANSACTION"
	OpUpdateTransaction       OperationType = "UPDATE_TRANSACTION"
	OpDeleteTransaction       OperationType = "DELETE_TRANSACTION"
	OpMoveTransactionToProject OperationType = "MOVE_TRANSACTION_TO_PROJECT"
	OpUpdateProject           OperationType = "UPDATE_PROJECT"
)

// OperationStatus makes operation abandonment explicit (resolving the open
// question in spec §9): a status field rather than an implicit
// retry-count-only signal.
type OperationStatus string

const (
	OperationPending   OperationStatus = "pending"
	OperationInFlight  OperationStatus = "in_flight"
	OperationRetrying  OperationStatus = "retrying"
	OperationAbandoned OperationStatus = "abandoned"
)

// Operation is a pending intent to write to the server.
type Operation struct {
	ID         string          `json:"id"`
	Type       OperationType   `json:"type"`
	Timestamp  time.Time       `json:"timestamp"`
	RetryCount int             `json:"retryCount"`
	LastError  string          `json:"lastError,omitempty"`
	AccountID  string          `json:"accountId"`
	UpdatedBy  string          `json:"updatedBy"`
	Version    int             `json:"version"`
	Status     OperationStatus `json:"status"`
	Data       json.RawMessage `json:"data"`
}

// EntityRef returns the entity type and id this operation targets, used by
// the conflict gate (§4.3 drain step 1) to scope a conflict lookup.
func (o *Operation) EntityRef() (EntityType, string, error) {
	payload, err := DecodePayload(o.Type, o.Data)
	if err != nil {
		return "", "", err
	}
	return payload.EntityRef()
}

// OperationPayload is implemented by every concrete per-variant payload
// struct. EntityRef reports which entity the operation targets.
type OperationPayload interface {
	EntityRef() (EntityType, string, error)
}

// DecodePayload validates the operation's tag and decodes its payload into
// the matching concrete type. An unrecognized tag is a programming error: it
// returns an error rather than silently ignoring the operation.
func DecodePayload(t OperationType, data json.RawMessage) (OperationPayload, error) {
	var payload OperationPayload
	switch t {
	case OpCreateItem:
		payload = &CreateItemPayload{}
	case OpUpdateItem:
		payload = &UpdateItemPayload{}
	case OpDeleteItem:
		payload = &DeleteItemPayload{}
	case OpAssignItemToTransaction:
		payload = &AssignItemToTransactionPayload{}
	case OpUnlinkItemFromTransaction:
		payload = &UnlinkItemFromTransactionPayload{}
	case OpAllocateItemToProject:
		payload = &AllocateItemToProjectPayload{}
	case OpDeallocateItem:
		payload = &DeallocateItemPayload{}
	case OpMoveItemToBusinessInventory:
		payload = &MoveItemToBusinessInventoryPayload{}
	case OpSellItemToProject:
		payload = &SellItemToProjectPayload{}
	case OpCreateTransaction:
		payload = &CreateTransactionPayload{}
	case OpUpdateTransaction:
		payload = &UpdateTransactionPayload{}
	case OpDeleteTransaction:
		payload = &DeleteTransactionPayload{}
	case OpMoveTransactionToProject:
		payload = &MoveTransactionToProjectPayload{}
	case OpUpdateProject:
		payload = &UpdateProjectPayload{}
	default:
		return nil, fmt.Errorf("types: unknown operation type %q", t)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, payload); err != nil {
			return nil, fmt.Errorf("types: decode payload for %q: %w", t, err)
		}
	}
	return payload, nil
}

// --- Item operation payloads ---

type CreateItemPayload struct {
	Item *Item `json:"item"`
}

func (p *CreateItemPayload) EntityRef() (EntityType, string, error) {
	if p.Item == nil {
		return "", "", fmt.Errorf("types: CREATE_ITEM payload missing item")
	}
	return EntityItem, p.Item.ItemID, nil
}

type UpdateItemPayload struct {
	ItemID  string         `json:"itemId"`
	Updates map[string]any `json:"updates"`
}

func (p *UpdateItemPayload) EntityRef() (EntityType, string, error) {
	return EntityItem, p.ItemID, nil
}

type DeleteItemPayload struct {
	ItemID string `json:"itemId"`
}

func (p *DeleteItemPayload) EntityRef() (EntityType, string, error) {
	return EntityItem, p.ItemID, nil
}

type AssignItemToTransactionPayload struct {
	ItemID        string `json:"itemId"`
	TransactionID string `json:"transactionId"`
}

func (p *AssignItemToTransactionPayload) EntityRef() (EntityType, string, error) {
	return EntityItem, p.ItemID, nil
}

type UnlinkItemFromTransactionPayload struct {
	ItemID        string `json:"itemId"`
	TransactionID string `json:"transactionId"`
}

func (p *UnlinkItemFromTransactionPayload) EntityRef() (EntityType, string, error) {
	return EntityItem, p.ItemID, nil
}

type AllocateItemToProjectPayload struct {
	ItemID    string `json:"itemId"`
	ProjectID string `json:"projectId"`
}

func (p *AllocateItemToProjectPayload) EntityRef() (EntityType, string, error) {
	return EntityItem, p.ItemID, nil
}

type DeallocateItemPayload struct {
	ItemID string `json:"itemId"`
}

func (p *DeallocateItemPayload) EntityRef() (EntityType, string, error) {
	return EntityItem, p.ItemID, nil
}

type MoveItemToBusinessInventoryPayload struct {
	ItemID   string `json:"itemId"`
	Location string `json:"businessInventoryLocation"`
}

func (p *MoveItemToBusinessInventoryPayload) EntityRef() (EntityType, string, error) {
	return EntityItem, p.ItemID, nil
}

type SellItemToProjectPayload struct {
	ItemID       string  `json:"itemId"`
	ProjectID    string  `json:"projectId"`
	ProjectPrice float64 `json:"projectPrice"`
}

func (p *SellItemToProjectPayload) EntityRef() (EntityType, string, error) {
	return EntityItem, p.ItemID, nil
}

// --- Transaction operation payloads ---

type CreateTransactionPayload struct {
	Transaction *Transaction `json:"transaction"`
}

func (p *CreateTransactionPayload) EntityRef() (EntityType, string, error) {
	if p.Transaction == nil {
		return "", "", fmt.Errorf("types: CREATE_TRANSACTION payload missing transaction")
	}
	return EntityTransaction, p.Transaction.TransactionID, nil
}

type UpdateTransactionPayload struct {
	TransactionID string         `json:"transactionId"`
	Updates       map[string]any `json:"updates"`
}

func (p *UpdateTransactionPayload) EntityRef() (EntityType, string, error) {
	return EntityTransaction, p.TransactionID, nil
}

type DeleteTransactionPayload struct {
	TransactionID string `json:"transactionId"`
}

func (p *DeleteTransactionPayload) EntityRef() (EntityType, string, error) {
	return EntityTransaction, p.TransactionID, nil
}

type MoveTransactionToProjectPayload struct {
	TransactionID string `json:"transactionId"`
	ProjectID     string `json:"projectId"`
}

func (p *MoveTransactionToProjectPayload) EntityRef() (EntityType, string, error) {
	return EntityTransaction, p.TransactionID, nil
}

// --- Project operation payloads ---

type UpdateProjectPayload struct {
	ProjectID string         `json:"projectId"`
	Updates   map[string]any `json:"updates"`
}

func (p *UpdateProjectPayload) EntityRef() (EntityType, string, error) {
	return EntityProject, p.ProjectID, nil
}

// IsBlockingVariant reports whether operations of this type are blocked by
// an existing conflict naming the same entity (§4.3 drain step 1). Creates
// are never blocked by conflicts on unrelated entities.
func (t OperationType) IsBlockingVariant() bool {
	return t != OpCreateItem && t != OpCreateTransaction
}
