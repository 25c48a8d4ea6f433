package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	Big0 = big.NewInt(0)
	Big1 = big.NewInt(1)
)

type Address string

// EmptyAddress marks a cleared owner or an unset wallet.
const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

// NativeToken is the reserved sentinel for native-currency payments,
// used wherever a payment token address is expected.
const NativeToken = Address("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

func (a Address) IsEmpty() bool {
	return len(a) == 0 || a.Equals(EmptyAddress)
}

func (a Address) IsNative() bool {
	return a.Equals(NativeToken)
}

func (a Address) IsHex() bool {
	return common.IsHexAddress(string(a))
}

type TokenId string

func (i TokenId) String() string {
	return string(i)
}

// LotId and OfferId are monotonically assigned and never reused.
type LotId int64

type OfferId int64

type CustodyId int64

// AssetRef identifies an external asset unit. IsFungible selects
// amount-based (semi-fungible) transfer semantics over whole-unit ones.
type AssetRef struct {
	ContractAddress Address `json:"contractAddress"`
	TokenId         TokenId `json:"tokenId"`
	IsFungible      bool    `json:"isFungible"`
}

func (r AssetRef) ToLower() AssetRef {
	r.ContractAddress = r.ContractAddress.ToLower()
	return r
}

// BasisPoints is the fee unit where 1000 == 100%.
type BasisPoints int64

const MaxBasisPoints BasisPoints = 1000

func (b BasisPoints) Valid() bool {
	return b >= 0 && b <= MaxBasisPoints
}

// TakeBps returns value*b/1000 truncated toward zero.
func TakeBps(value *big.Int, b BasisPoints) *big.Int {
	cut := new(big.Int).Mul(value, big.NewInt(int64(b)))
	return cut.Div(cut, big.NewInt(int64(MaxBasisPoints)))
}

func IsPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}

func IsZeroOrNil(v *big.Int) bool {
	return v == nil || v.Sign() == 0
}

func BigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
