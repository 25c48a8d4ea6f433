// Package commission holds the fee-rate arithmetic shared by the lot
// ledger and the offer engine.
package commission

import (
	"math/big"

	"github.com/x-xyz/settlement/domain"
)

// Split divides a gross payment into the seller's net and the market and
// collection cuts. Integer division truncates toward zero, so dust stays
// with the payer side of each cut. When the collection has no owner
// wallet the collection cut folds back into the seller's net instead of
// being stranded. The rates carry independent caps only, so together
// they may pass 100% of gross; the collection cut is then clipped to
// what remains after the market cut, keeping
// sellerNet + marketCut + collectionCut == gross.
func Split(gross *big.Int, marketBps, collectionBps domain.BasisPoints, hasCollectionOwner bool) (sellerNet, marketCut, collectionCut *big.Int) {
	marketCut = domain.TakeBps(gross, marketBps)
	sellerNet = new(big.Int).Sub(gross, marketCut)

	collectionCut = new(big.Int)
	if hasCollectionOwner {
		collectionCut = domain.TakeBps(gross, collectionBps)
		if collectionCut.Cmp(sellerNet) > 0 {
			collectionCut.Set(sellerNet)
		}
		sellerNet.Sub(sellerNet, collectionCut)
	}
	return sellerNet, marketCut, collectionCut
}
