package relay

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/wormhole-gateway/addressing"
	"github.com/TEENet-io/wormhole-gateway/agreement"
	mycommon "github.com/TEENet-io/wormhole-gateway/common"
	"github.com/TEENet-io/wormhole-gateway/database"
	"github.com/TEENet-io/wormhole-gateway/tokenledger"
)

const (
	hostChain   uint16 = 1
	remoteChain uint16 = 2
)

func randAddr() agreement.Address {
	return agreement.Address(mycommon.RandBytes32())
}

type fixture struct {
	book    *addressing.Book
	ledger  *tokenledger.Session
	s       *Session
	token   agreement.ForeignAddress
	wrapped agreement.Address
	owner   agreement.Address
	custody agreement.Address
}

func newFixture(t *testing.T) *fixture {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)

	book := &addressing.Book{Gateway: randAddr(), TokenBridge: randAddr(), Token: randAddr()}
	l, err := tokenledger.NewLedger(db)
	require.NoError(t, err)
	r, err := New(db, &Config{ChainID: hostChain}, book)
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close()
		l.Close()
		db.Close()
	})

	f := &fixture{
		book:    book,
		ledger:  l.Reader(),
		token:   agreement.ForeignAddress(mycommon.RandBytes32()),
		owner:   randAddr(),
		custody: randAddr(),
	}
	f.s = r.Session(db, f.ledger)

	f.wrapped, err = f.s.AttestAsset(remoteChain, f.token, 8)
	require.NoError(t, err)
	assert.Equal(t, book.WrappedAsset(remoteChain, f.token), f.wrapped)
	require.NoError(t, f.ledger.CreateAccount(f.custody, f.wrapped, f.owner))
	return f
}

func (f *fixture) post(t *testing.T, amount uint64, seq uint64) common.Hash {
	recipient := randAddr()
	h, err := f.s.PostMessage(&agreement.TransferMessage{
		EmitterChain: remoteChain,
		Sequence:     seq,
		Amount:       amount,
		TokenChain:   remoteChain,
		TokenAddress: f.token,
		Redeemer:     f.owner,
		ToChain:      hostChain,
		Payload:      recipient[:],
	})
	require.NoError(t, err)
	return h
}

func TestPostAndComplete(t *testing.T) {
	f := newFixture(t)
	h := f.post(t, 500, 1)

	msg, err := f.s.PostedTransfer(h)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), msg.Amount)

	_, err = f.s.PostedTransfer(common.Hash{1})
	assert.ErrorIs(t, err, ErrMessageNotFound)

	claimed, err := f.s.ClaimExists(h)
	require.NoError(t, err)
	assert.False(t, claimed)

	_, err = f.s.CompleteTransferWithPayload(h, f.custody, randAddr())
	assert.ErrorIs(t, err, ErrInvalidRedeemer)

	_, err = f.s.CompleteTransferWithPayload(h, f.custody, f.owner)
	require.NoError(t, err)

	claimed, err = f.s.ClaimExists(h)
	require.NoError(t, err)
	assert.True(t, claimed)

	acct, err := f.ledger.Account(f.custody)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), acct.Amount)

	_, err = f.s.CompleteTransferWithPayload(h, f.custody, f.owner)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestPostTwice(t *testing.T) {
	f := newFixture(t)
	recipient := randAddr()
	msg := &agreement.TransferMessage{
		EmitterChain: remoteChain,
		Sequence:     1,
		Amount:       1,
		TokenChain:   remoteChain,
		TokenAddress: f.token,
		Redeemer:     f.owner,
		ToChain:      hostChain,
		Payload:      recipient[:],
	}
	_, err := f.s.PostMessage(msg)
	require.NoError(t, err)
	_, err = f.s.PostMessage(msg)
	assert.ErrorIs(t, err, ErrMessageExists)
}

func TestWrongChain(t *testing.T) {
	f := newFixture(t)
	recipient := randAddr()
	h, err := f.s.PostMessage(&agreement.TransferMessage{
		EmitterChain: remoteChain,
		Sequence:     9,
		Amount:       1,
		TokenChain:   remoteChain,
		TokenAddress: f.token,
		Redeemer:     f.owner,
		ToChain:      remoteChain,
		Payload:      recipient[:],
	})
	require.NoError(t, err)

	_, err = f.s.CompleteTransferWithPayload(h, f.custody, f.owner)
	assert.ErrorIs(t, err, ErrWrongChain)
}

func TestOutbound(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.CompleteTransferWithPayload(f.post(t, 100, 1), f.custody, f.owner)
	require.NoError(t, err)

	req := &agreement.OutboundTransfer{
		Sender:         randAddr(),
		From:           f.custody,
		Asset:          f.wrapped,
		Amount:         60,
		RecipientChain: remoteChain,
		Recipient:      agreement.ForeignAddress(mycommon.RandBytes32()),
		ArbiterFee:     61,
		Nonce:          3,
		Payload:        []byte{1, 2},
	}
	_, err = f.s.TransferWrapped(req)
	assert.ErrorIs(t, err, ErrFeeTooHigh)

	req.ArbiterFee = 1
	_, err = f.s.TransferWrapped(req)
	assert.ErrorIs(t, err, tokenledger.ErrUnauthorized)

	require.NoError(t, f.ledger.Approve(f.custody, f.owner, f.s.TransferAuthority(), 60))
	seq, err := f.s.TransferWrapped(req)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	require.NoError(t, f.ledger.Approve(f.custody, f.owner, f.s.TransferAuthority(), 40))
	req.Amount = 40
	seq, err = f.s.TransferWrappedWithPayload(req)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)

	acct, err := f.ledger.Account(f.custody)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), acct.Amount)

	recs, err := f.s.Outbound(0, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(60), recs[0].Amount)
	assert.Nil(t, recs[0].Payload)
	assert.Equal(t, []byte{1, 2}, recs[1].Payload)
	assert.Equal(t, req.Recipient, recs[1].Recipient)
	assert.Equal(t, uint32(3), recs[1].Nonce)

	recs, err = f.s.Outbound(1, 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	req.Asset = randAddr()
	_, err = f.s.TransferWrapped(req)
	assert.ErrorIs(t, err, ErrAssetMismatch)
}
