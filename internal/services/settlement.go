package services

import (
	"github.com/getmentor/getmentor-escrow/pkg/amount"
)

// Split is the settlement of one session's custody
type Split struct {
	PlatformFee   amount.Amount
	MentorPayment amount.Amount
}

// SplitPayment divides total into the platform fee floor(total*feePercent/100) and the mentor's remainder.
// feePercent is at most 100, so the two parts always sum to total.
func SplitPayment(total amount.Amount, feePercent uint64) Split {
	fee := total.MulDivFloor(feePercent, 100)
	payment, _ := total.Sub(fee)
	return Split{PlatformFee: fee, MentorPayment: payment}
}
