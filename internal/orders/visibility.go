package orders

// Visible memutuskan apakah order boleh tampil ke staff.
// GCASH harus sudah APPROVED; selain itu cukup payment status bukan PENDING
// (order tanpa marker pending dianggap visible).
func Visible(o Order) bool {
	if o.PaymentMethod == PaymentGCash {
		return o.PaymentStatus == PaymentApproved
	}
	return o.PaymentStatus != PaymentPending
}
