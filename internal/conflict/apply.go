package conflict

import (
	"encoding/json"
	"fmt"

	"github.com/kilnworks/syncengine/internal/types"
)

// setField decodes raw (as stored in a Conflict's SideSnapshot.Data map, or
// produced fresh by toFieldMap) into dst via a JSON round trip. This keeps
// the keep_server / merge paths agnostic to whether raw arrived as a
// native Go value or as a JSON-unmarshalled map[string]any — both decode
// identically.
func setField(dst any, raw any) error {
	if raw == nil {
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("conflict: marshal field value: %w", err)
	}
	return json.Unmarshal(b, dst)
}

func applyItemFields(item *types.Item, data map[string]any) {
	for _, fc := range types.FieldsForItem() {
		raw, ok := data[fc.Name]
		if !ok {
			continue
		}
		applyItemField(item, fc.Name, raw)
	}
}

func applyItemField(item *types.Item, name string, raw any) {
	switch name {
	case "name":
		_ = setField(&item.Name, raw)
	case "description":
		_ = setField(&item.Description, raw)
	case "source":
		_ = setField(&item.Source, raw)
	case "sku":
		_ = setField(&item.SKU, raw)
	case "price":
		_ = setField(&item.Price, raw)
	case "purchasePrice":
		_ = setField(&item.PurchasePrice, raw)
	case "projectPrice":
		_ = setField(&item.ProjectPrice, raw)
	case "marketValue":
		_ = setField(&item.MarketValue, raw)
	case "paymentMethod":
		_ = setField(&item.PaymentMethod, raw)
	case "disposition":
		_ = setField(&item.Disposition, raw)
	case "notes":
		_ = setField(&item.Notes, raw)
	case "space":
		_ = setField(&item.Space, raw)
	case "taxRatePct":
		_ = setField(&item.TaxRatePct, raw)
	case "taxAmountPurchasePrice":
		_ = setField(&item.TaxAmountPurchasePrice, raw)
	case "taxAmountProjectPrice":
		_ = setField(&item.TaxAmountProjectPrice, raw)
	case "bookmark":
		_ = setField(&item.Bookmark, raw)
	case "inventoryStatus":
		_ = setField(&item.InventoryStatus, raw)
	case "businessInventoryLocation":
		_ = setField(&item.BusinessInventoryLocation, raw)
	}
}

func applyTransactionFields(txn *types.Transaction, data map[string]any) {
	for _, fc := range types.FieldsForTransaction() {
		raw, ok := data[fc.Name]
		if !ok {
			continue
		}
		applyTransactionField(txn, fc.Name, raw)
	}
}

func applyTransactionField(txn *types.Transaction, name string, raw any) {
	switch name {
	case "amount":
		_ = setField(&txn.Amount, raw)
	case "allocatedAmount":
		_ = setField(&txn.AllocatedAmount, raw)
	case "categoryId":
		_ = setField(&txn.CategoryID, raw)
	case "taxRatePreset":
		_ = setField(&txn.TaxRatePreset, raw)
	case "taxRatePct":
		_ = setField(&txn.TaxRatePct, raw)
	case "subtotal":
		_ = setField(&txn.Subtotal, raw)
	case "status":
		_ = setField(&txn.Status, raw)
	case "notes":
		_ = setField(&txn.Notes, raw)
	case "itemIds":
		_ = setField(&txn.ItemIDs, raw)
	case "needsReview":
		_ = setField(&txn.NeedsReview, raw)
	case "sumItemPurchasePrices":
		_ = setField(&txn.SumItemPurchasePrices, raw)
	case "reimbursementType":
		_ = setField(&txn.ReimbursementType, raw)
	case "triggerEvent":
		_ = setField(&txn.TriggerEvent, raw)
	}
}

func applyProjectFields(proj *types.Project, data map[string]any) {
	for _, fc := range types.FieldsForProject() {
		raw, ok := data[fc.Name]
		if !ok {
			continue
		}
		applyProjectField(proj, fc.Name, raw)
	}
}

func applyProjectField(proj *types.Project, name string, raw any) {
	switch name {
	case "name":
		_ = setField(&proj.Name, raw)
	case "description":
		_ = setField(&proj.Description, raw)
	case "budget":
		_ = setField(&proj.Budget, raw)
	case "designFee":
		_ = setField(&proj.DesignFee, raw)
	case "defaultCategoryId":
		_ = setField(&proj.DefaultCategoryID, raw)
	case "status":
		_ = setField(&proj.Status, raw)
	case "settings":
		_ = setField(&proj.Settings, raw)
	case "budgetCategories":
		_ = setField(&proj.BudgetCategories, raw)
	}
}

// updatePayloadFor builds the JSON payload for an UPDATE_* operation
// carrying data as its Updates map, so a keep_local/merge resolution can
// flow back through the ordinary queue drain rather than writing the
// server directly.
func updatePayloadFor(entityType types.EntityType, entityID string, data map[string]any) (types.OperationType, []byte, error) {
	switch entityType {
	case types.EntityItem:
		b, err := json.Marshal(types.UpdateItemPayload{ItemID: entityID, Updates: data})
		return types.OpUpdateItem, b, err
	case types.EntityTransaction:
		b, err := json.Marshal(types.UpdateTransactionPayload{TransactionID: entityID, Updates: data})
		return types.OpUpdateTransaction, b, err
	case types.EntityProject:
		b, err := json.Marshal(types.UpdateProjectPayload{ProjectID: entityID, Updates: data})
		return types.OpUpdateProject, b, err
	default:
		return "", nil, fmt.Errorf("conflict: unknown entity type %q", entityType)
	}
}
