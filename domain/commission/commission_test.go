package commission

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/x-xyz/settlement/domain"
)

func TestSplit(t *testing.T) {
	e18 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	gross := new(big.Int).Mul(big.NewInt(200), e18)

	cases := []struct {
		name          string
		gross         *big.Int
		marketBps     domain.BasisPoints
		collectionBps domain.BasisPoints
		hasColOwner   bool
		sellerNet     *big.Int
		marketCut     *big.Int
		collectionCut *big.Int
	}{
		{
			name:          "market cut only",
			gross:         gross,
			marketBps:     150,
			sellerNet:     new(big.Int).Mul(big.NewInt(170), e18),
			marketCut:     new(big.Int).Mul(big.NewInt(30), e18),
			collectionCut: big.NewInt(0),
		},
		{
			name:          "market and collection cuts",
			gross:         big.NewInt(1000),
			marketBps:     150,
			collectionBps: 50,
			hasColOwner:   true,
			sellerNet:     big.NewInt(800),
			marketCut:     big.NewInt(150),
			collectionCut: big.NewInt(50),
		},
		{
			name:          "no collection owner folds cut to seller",
			gross:         big.NewInt(1000),
			marketBps:     150,
			collectionBps: 50,
			hasColOwner:   false,
			sellerNet:     big.NewInt(850),
			marketCut:     big.NewInt(150),
			collectionCut: big.NewInt(0),
		},
		{
			name:          "truncation leaves dust with seller",
			gross:         big.NewInt(999),
			marketBps:     150,
			sellerNet:     big.NewInt(850),
			marketCut:     big.NewInt(149),
			collectionCut: big.NewInt(0),
		},
		{
			name:          "collection cut clipped to remainder",
			gross:         big.NewInt(1000),
			marketBps:     600,
			collectionBps: 600,
			hasColOwner:   true,
			sellerNet:     big.NewInt(0),
			marketCut:     big.NewInt(600),
			collectionCut: big.NewInt(400),
		},
		{
			name:          "full market rate",
			gross:         big.NewInt(1000),
			marketBps:     1000,
			collectionBps: 100,
			hasColOwner:   true,
			sellerNet:     big.NewInt(0),
			marketCut:     big.NewInt(1000),
			collectionCut: big.NewInt(0),
		},
		{
			name:          "zero gross",
			gross:         big.NewInt(0),
			marketBps:     150,
			collectionBps: 50,
			hasColOwner:   true,
			sellerNet:     big.NewInt(0),
			marketCut:     big.NewInt(0),
			collectionCut: big.NewInt(0),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sellerNet, marketCut, collectionCut := Split(c.gross, c.marketBps, c.collectionBps, c.hasColOwner)
			require.Equal(t, c.sellerNet.String(), sellerNet.String())
			require.Equal(t, c.marketCut.String(), marketCut.String())
			require.Equal(t, c.collectionCut.String(), collectionCut.String())

			total := new(big.Int).Add(sellerNet, marketCut)
			total.Add(total, collectionCut)
			require.Equal(t, c.gross.String(), total.String(), "split must conserve gross")
		})
	}
}
