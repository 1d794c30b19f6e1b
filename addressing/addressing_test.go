package addressing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	mycommon "github.com/TEENet-io/wormhole-gateway/common"
)

func randBook() *Book {
	return &Book{
		Gateway:     agreement.Address(mycommon.RandBytes32()),
		TokenBridge: agreement.Address(mycommon.RandBytes32()),
		Token:       agreement.Address(mycommon.RandBytes32()),
	}
}

func TestDeriveDeterministic(t *testing.T) {
	b := randBook()
	assert.Equal(t, b.Custodian(), b.Custodian())
	assert.Equal(t, b.GatewayInfo(2), b.GatewayInfo(2))

	other := randBook()
	assert.NotEqual(t, b.Custodian(), other.Custodian())
}

func TestDeriveDistinct(t *testing.T) {
	b := randBook()
	owner := agreement.Address(mycommon.RandBytes32())
	token := agreement.ForeignAddress(mycommon.RandBytes32())

	addrs := []agreement.Address{
		b.Custodian(),
		b.Custody(),
		b.RelaySender(),
		b.CanonicalAsset(),
		b.TransferAuthority(),
		b.MintAuthority(),
		b.GatewayInfo(1),
		b.GatewayInfo(2),
		b.WrappedAsset(2, token),
		b.WrappedAsset(3, token),
		b.TokenAccount(owner, b.CanonicalAsset()),
		b.TokenAccount(owner, b.WrappedAsset(2, token)),
	}

	seen := map[agreement.Address]bool{}
	for _, a := range addrs {
		assert.NotEqual(t, agreement.ZeroAddress, a)
		assert.False(t, seen[a], "duplicate address %s", agreement.AddressHex(a))
		seen[a] = true
	}
}

func TestDeriveSeedBoundaries(t *testing.T) {
	p := agreement.Address(mycommon.RandBytes32())
	assert.NotEqual(t,
		Derive(p, []byte("ab"), []byte("c")),
		Derive(p, []byte("a"), []byte("bc")),
	)
}
