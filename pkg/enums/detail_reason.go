package enums

// DetailReason is the machine-readable reason code attached to an installment
// detail. User-facing copy is resolved by the localization layer, not here.
type DetailReason string

const (
	DetailReasonOutOfStock     DetailReason = "out_of_stock"
	DetailReasonCheckoutFailed DetailReason = "checkout_failed"
)

// String implements fmt.Stringer.
func (r DetailReason) String() string {
	return string(r)
}
