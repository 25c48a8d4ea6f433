package domain

import "errors"

// Error categories. Every operation failure wraps exactly one of these so
// callers can classify with errors.Is.
var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidState        = errors.New("operation illegal for current state")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrEncumbered          = errors.New("encumbered by active offer")

	ErrNotFound = errors.New("requested item is not found")
)

type settlementError struct {
	category error
	msg      string
}

func (e *settlementError) Error() string { return e.msg }

func (e *settlementError) Unwrap() error { return e.category }

func categorized(category error, msg string) error {
	return &settlementError{category: category, msg: msg}
}

var (
	// escrow
	ErrInvalidDeposit        = categorized(ErrInvalidParameter, "invalid deposit")
	ErrInsufficientAllowance = categorized(ErrInsufficientPayment, "insufficient allowance")
	ErrInsufficientBalance   = categorized(ErrInsufficientPayment, "insufficient balance")

	// lot ledger
	ErrNotOwner               = categorized(ErrPermissionDenied, "caller is not the owner")
	ErrNotSellingOrNotStarted = categorized(ErrInvalidState, "lot is not selling or sale has not started")
	ErrAlreadySelling         = categorized(ErrInvalidState, "lot is already selling")
	ErrLotNotOnAuction        = categorized(ErrInvalidState, "lot is not on an active auction")
	ErrAuctionNotEnded        = categorized(ErrInvalidState, "auction has not ended")
	ErrLotHasBid              = categorized(ErrInvalidState, "auction already received a bid")

	// offer engine
	ErrOfferNotActive          = categorized(ErrInvalidState, "offer is not active")
	ErrLotNotOpenForOffers     = categorized(ErrInvalidState, "lot is not open for offers")
	ErrUnsupportedPaymentToken = categorized(ErrInvalidParameter, "unsupported payment token")
	ErrZeroValueOffer          = categorized(ErrInvalidParameter, "offer carries no consideration")
	ErrItemLotEncumbered       = categorized(ErrEncumbered, "item lot referenced by an active offer")
	ErrMixedOfferValue         = categorized(ErrInvalidParameter, "offer mixes native and token value")
)
