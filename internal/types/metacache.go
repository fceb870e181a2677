package types

// TaxPreset is a named tax rate an account can apply to a transaction.
type TaxPreset struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	RatePct float64 `json:"ratePct"`
}

// VendorDefaultSlotCount is the fixed number of ordered vendor-default
// slots an account may hold (§4.7); writing any other length is rejected.
const VendorDefaultSlotCount = 10

// VendorDefault is one ordered slot of an account's default vendor list.
type VendorDefault struct {
	Slot int    `json:"slot"`
	Name string `json:"name"`
}
