package tokenledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/common"
	"github.com/TEENet-io/wormhole-gateway/database"
)

func randAddr() agreement.Address {
	return agreement.Address(common.RandBytes32())
}

type fixture struct {
	s         *Session
	asset     agreement.Address
	authority agreement.Address
	minter    agreement.Address
}

func newFixture(t *testing.T) *fixture {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	l, err := NewLedger(db)
	require.NoError(t, err)
	t.Cleanup(func() {
		l.Close()
		db.Close()
	})

	f := &fixture{
		s:         l.Reader(),
		asset:     randAddr(),
		authority: randAddr(),
		minter:    randAddr(),
	}
	require.NoError(t, f.s.CreateAsset(f.asset, f.authority, 8))
	require.NoError(t, f.s.AddMinter(f.asset, f.authority, f.minter))
	return f
}

func (f *fixture) account(t *testing.T, owner agreement.Address) agreement.Address {
	addr := randAddr()
	require.NoError(t, f.s.CreateAccount(addr, f.asset, owner))
	return addr
}

func (f *fixture) balance(t *testing.T, addr agreement.Address) uint64 {
	acct, err := f.s.Account(addr)
	require.NoError(t, err)
	return acct.Amount
}

func TestAssetAndMinters(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.s.CreateAsset(f.asset, f.authority, 8), ErrAssetExists)
	assert.ErrorIs(t, f.s.CreateAsset(agreement.ZeroAddress, f.authority, 8), ErrZeroAddress)

	a, err := f.s.Asset(f.asset)
	require.NoError(t, err)
	assert.Equal(t, uint8(8), a.Decimals)
	assert.Equal(t, f.authority, a.Authority)

	_, err = f.s.Asset(randAddr())
	assert.ErrorIs(t, err, ErrAssetNotFound)

	ok, err := f.s.IsMinter(f.asset, f.minter)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, f.s.RemoveMinter(f.asset, f.minter, f.minter), ErrUnauthorized)
	require.NoError(t, f.s.RemoveMinter(f.asset, f.authority, f.minter))
	ok, err = f.s.IsMinter(f.asset, f.minter)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMintBurn(t *testing.T) {
	f := newFixture(t)
	owner := randAddr()
	acct := f.account(t, owner)

	assert.ErrorIs(t, f.s.MintTo(f.asset, acct, randAddr(), 1), ErrNotMinter)
	require.NoError(t, f.s.MintTo(f.asset, acct, f.minter, 100))
	assert.Equal(t, uint64(100), f.balance(t, acct))

	assert.ErrorIs(t, f.s.Burn(acct, randAddr(), 1), ErrUnauthorized)
	assert.ErrorIs(t, f.s.Burn(acct, owner, 101), ErrInsufficientFunds)
	require.NoError(t, f.s.Burn(acct, owner, 40))
	assert.Equal(t, uint64(60), f.balance(t, acct))

	a, err := f.s.Asset(f.asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), a.Supply)

	_, err = f.s.Account(randAddr())
	assert.ErrorIs(t, err, agreement.ErrAccountNotFound)
}

func TestFullRangeAmounts(t *testing.T) {
	f := newFixture(t)
	acct := f.account(t, randAddr())

	require.NoError(t, f.s.MintTo(f.asset, acct, f.minter, math.MaxUint64))
	assert.Equal(t, uint64(math.MaxUint64), f.balance(t, acct))
	assert.ErrorIs(t, f.s.MintTo(f.asset, acct, f.minter, 1), ErrOverflow)
}

func TestTransferAndDelegate(t *testing.T) {
	f := newFixture(t)
	alice, bob, relay := randAddr(), randAddr(), randAddr()
	a := f.account(t, alice)
	b := f.account(t, bob)
	require.NoError(t, f.s.MintTo(f.asset, a, f.minter, 100))

	require.NoError(t, f.s.Transfer(a, b, alice, 30))
	assert.Equal(t, uint64(70), f.balance(t, a))
	assert.Equal(t, uint64(30), f.balance(t, b))

	assert.ErrorIs(t, f.s.Transfer(a, b, relay, 10), ErrUnauthorized)
	assert.ErrorIs(t, f.s.Approve(a, bob, relay, 10), ErrUnauthorized)
	require.NoError(t, f.s.Approve(a, alice, relay, 10))

	acct, err := f.s.Account(a)
	require.NoError(t, err)
	assert.Equal(t, relay, acct.Delegate)
	assert.Equal(t, uint64(10), acct.DelegatedAmount)

	assert.ErrorIs(t, f.s.Burn(a, relay, 11), ErrInsufficientFunds)
	require.NoError(t, f.s.Burn(a, relay, 4))
	require.NoError(t, f.s.Transfer(a, b, relay, 6))

	acct, err = f.s.Account(a)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), acct.Amount)
	assert.Equal(t, uint64(0), acct.DelegatedAmount)
	assert.Equal(t, agreement.ZeroAddress, acct.Delegate)
	assert.ErrorIs(t, f.s.Burn(a, relay, 1), ErrUnauthorized)

	// accounts of other assets cannot receive
	other := randAddr()
	require.NoError(t, f.s.CreateAsset(other, f.authority, 6))
	c := randAddr()
	require.NoError(t, f.s.CreateAccount(c, other, bob))
	assert.ErrorIs(t, f.s.Transfer(a, c, alice, 1), ErrAssetMismatch)
}

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)
	owner := randAddr()
	addr := f.account(t, owner)

	assert.ErrorIs(t, f.s.CreateAccount(addr, f.asset, owner), ErrAccountExists)
	assert.ErrorIs(t, f.s.CreateAccount(randAddr(), randAddr(), owner), ErrAssetNotFound)
	assert.ErrorIs(t, f.s.CreateAccount(randAddr(), f.asset, agreement.ZeroAddress), ErrZeroAddress)

	f.account(t, owner)
	accts, err := f.s.AccountsByOwner(owner)
	require.NoError(t, err)
	assert.Len(t, accts, 2)
}
