package types

import "reflect"

// FieldComparator pairs a mutable field's name with an accessor and an
// equality check. The conflict detector (internal/conflict) iterates a
// compile-time slice of these per entity kind instead of doing
// string-keyed reflection over an arbitrary struct — see spec §9's design
// note on dynamic field access.
type FieldComparator[T any] struct {
	Name  string
	Get   func(T) any
	Equal func(a, b T) bool
}

// deepEqualValues is the default equality combinator: reflect.DeepEqual over
// the two accessed values, which handles scalars, slices, and maps alike.
func deepEqualValues[T any](fc FieldComparator[T]) func(a, b T) bool {
	return func(a, b T) bool {
		return reflect.DeepEqual(fc.Get(a), fc.Get(b))
	}
}

func field[T any](name string, get func(T) any) FieldComparator[T] {
	fc := FieldComparator[T]{Name: name, Get: get}
	fc.Equal = deepEqualValues(fc)
	return fc
}

// FieldsForItem is the mutable, conflict-compared field whitelist for Item.
func FieldsForItem() []FieldComparator[*Item] {
	return []FieldComparator[*Item]{
		field[*Item]("name", func(i *Item) any { return i.Name }),
		field[*Item]("description", func(i *Item) any { return i.Description }),
		field[*Item]("source", func(i *Item) any { return i.Source }),
		field[*Item]("sku", func(i *Item) any { return i.SKU }),
		field[*Item]("price", func(i *Item) any { return i.Price }),
		field[*Item]("purchasePrice", func(i *Item) any { return i.PurchasePrice }),
		field[*Item]("projectPrice", func(i *Item) any { return i.ProjectPrice }),
		field[*Item]("marketValue", func(i *Item) any { return i.MarketValue }),
		field[*Item]("paymentMethod", func(i *Item) any { return i.PaymentMethod }),
		field[*Item]("disposition", func(i *Item) any { return i.Disposition }),
		field[*Item]("notes", func(i *Item) any { return i.Notes }),
		field[*Item]("space", func(i *Item) any { return i.Space }),
		field[*Item]("taxRatePct", func(i *Item) any { return i.TaxRatePct }),
		field[*Item]("taxAmountPurchasePrice", func(i *Item) any { return i.TaxAmountPurchasePrice }),
		field[*Item]("taxAmountProjectPrice", func(i *Item) any { return i.TaxAmountProjectPrice }),
		field[*Item]("bookmark", func(i *Item) any { return i.Bookmark }),
		field[*Item]("inventoryStatus", func(i *Item) any { return i.InventoryStatus }),
		field[*Item]("businessInventoryLocation", func(i *Item) any { return i.BusinessInventoryLocation }),
	}
}

// FieldsForTransaction is the mutable, conflict-compared field whitelist
// for Transaction.
func FieldsForTransaction() []FieldComparator[*Transaction] {
	return []FieldComparator[*Transaction]{
		field[*Transaction]("amount", func(t *Transaction) any { return t.Amount }),
		field[*Transaction]("allocatedAmount", func(t *Transaction) any { return t.AllocatedAmount }),
		field[*Transaction]("categoryId", func(t *Transaction) any { return t.CategoryID }),
		field[*Transaction]("taxRatePreset", func(t *Transaction) any { return t.TaxRatePreset }),
		field[*Transaction]("taxRatePct", func(t *Transaction) any { return t.TaxRatePct }),
		field[*Transaction]("subtotal", func(t *Transaction) any { return t.Subtotal }),
		field[*Transaction]("status", func(t *Transaction) any { return t.Status }),
		field[*Transaction]("notes", func(t *Transaction) any { return t.Notes }),
		field[*Transaction]("itemIds", func(t *Transaction) any { return t.ItemIDs }),
		field[*Transaction]("needsReview", func(t *Transaction) any { return t.NeedsReview }),
		field[*Transaction]("sumItemPurchasePrices", func(t *Transaction) any { return t.SumItemPurchasePrices }),
		field[*Transaction]("reimbursementType", func(t *Transaction) any { return t.ReimbursementType }),
		field[*Transaction]("triggerEvent", func(t *Transaction) any { return t.TriggerEvent }),
	}
}

// FieldsForProject is the mutable, conflict-compared field whitelist for
// Project.
func FieldsForProject() []FieldComparator[*Project] {
	return []FieldComparator[*Project]{
		field[*Project]("name", func(p *Project) any { return p.Name }),
		field[*Project]("description", func(p *Project) any { return p.Description }),
		field[*Project]("budget", func(p *Project) any { return p.Budget }),
		field[*Project]("designFee", func(p *Project) any { return p.DesignFee }),
		field[*Project]("defaultCategoryId", func(p *Project) any { return p.DefaultCategoryID }),
		field[*Project]("status", func(p *Project) any { return p.Status }),
		field[*Project]("settings", func(p *Project) any { return p.Settings }),
		field[*Project]("budgetCategories", func(p *Project) any { return p.BudgetCategories }),
	}
}
