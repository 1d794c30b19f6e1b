package settlement

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/wormhole-gateway/addressing"
	"github.com/TEENet-io/wormhole-gateway/agreement"
	mycommon "github.com/TEENet-io/wormhole-gateway/common"
	"github.com/TEENet-io/wormhole-gateway/custodian"
)

var (
	errFakeUnauthorized = errors.New("fake: unauthorized")
	errFakeInsufficient = errors.New("fake: insufficient funds")
	errFakeExists       = errors.New("fake: account exists")
)

type fakeLedger struct {
	accounts map[agreement.Address]*agreement.TokenAccount
	minters  map[agreement.Address]agreement.Address
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts: map[agreement.Address]*agreement.TokenAccount{},
		minters:  map[agreement.Address]agreement.Address{},
	}
}

func (l *fakeLedger) Account(addr agreement.Address) (*agreement.TokenAccount, error) {
	a, ok := l.accounts[addr]
	if !ok {
		return nil, agreement.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (l *fakeLedger) CreateAccount(addr, asset, owner agreement.Address) error {
	if _, ok := l.accounts[addr]; ok {
		return errFakeExists
	}
	l.accounts[addr] = &agreement.TokenAccount{Address: addr, Asset: asset, Owner: owner}
	return nil
}

func (l *fakeLedger) MintTo(asset, to, minter agreement.Address, amount uint64) error {
	if l.minters[asset] != minter {
		return errFakeUnauthorized
	}
	a, ok := l.accounts[to]
	if !ok {
		return agreement.ErrAccountNotFound
	}
	a.Amount += amount
	return nil
}

func (l *fakeLedger) spend(a *agreement.TokenAccount, authority agreement.Address, amount uint64) error {
	switch {
	case authority == a.Owner:
	case authority == a.Delegate && a.DelegatedAmount >= amount:
		a.DelegatedAmount -= amount
	default:
		return errFakeUnauthorized
	}
	if a.Amount < amount {
		return errFakeInsufficient
	}
	a.Amount -= amount
	return nil
}

func (l *fakeLedger) Burn(from, authority agreement.Address, amount uint64) error {
	a, ok := l.accounts[from]
	if !ok {
		return agreement.ErrAccountNotFound
	}
	return l.spend(a, authority, amount)
}

func (l *fakeLedger) Transfer(from, to, authority agreement.Address, amount uint64) error {
	src, ok := l.accounts[from]
	if !ok {
		return agreement.ErrAccountNotFound
	}
	dst, ok := l.accounts[to]
	if !ok {
		return agreement.ErrAccountNotFound
	}
	if err := l.spend(src, authority, amount); err != nil {
		return err
	}
	dst.Amount += amount
	return nil
}

func (l *fakeLedger) Approve(account, owner, delegate agreement.Address, amount uint64) error {
	a, ok := l.accounts[account]
	if !ok {
		return agreement.ErrAccountNotFound
	}
	if a.Owner != owner {
		return errFakeUnauthorized
	}
	a.Delegate = delegate
	a.DelegatedAmount = amount
	return nil
}

func (l *fakeLedger) balance(addr agreement.Address) uint64 {
	a, ok := l.accounts[addr]
	if !ok {
		return 0
	}
	return a.Amount
}

type fakeRelay struct {
	ledger    *fakeLedger
	authority agreement.Address
	posted    map[common.Hash]*agreement.TransferMessage
	claims    map[common.Hash]bool
	sent      []*agreement.OutboundTransfer
}

func newFakeRelay(ledger *fakeLedger) *fakeRelay {
	return &fakeRelay{
		ledger:    ledger,
		authority: agreement.Address(mycommon.RandBytes32()),
		posted:    map[common.Hash]*agreement.TransferMessage{},
		claims:    map[common.Hash]bool{},
	}
}

func (r *fakeRelay) post(m *agreement.TransferMessage) common.Hash {
	h, err := m.Digest()
	if err != nil {
		panic(err)
	}
	r.posted[h] = m
	return h
}

func (r *fakeRelay) ClaimExists(hash common.Hash) (bool, error) {
	return r.claims[hash], nil
}

func (r *fakeRelay) PostedTransfer(hash common.Hash) (*agreement.TransferMessage, error) {
	m, ok := r.posted[hash]
	if !ok {
		return nil, errors.New("fake: not posted")
	}
	return m, nil
}

func (r *fakeRelay) CompleteTransferWithPayload(hash common.Hash, custody, redeemer agreement.Address) (*agreement.TransferMessage, error) {
	if r.claims[hash] {
		return nil, errors.New("fake: already claimed")
	}
	m := r.posted[hash]
	if m.Redeemer != redeemer {
		return nil, errFakeUnauthorized
	}
	r.claims[hash] = true
	r.ledger.accounts[custody].Amount += m.Amount
	return m, nil
}

func (r *fakeRelay) transfer(req *agreement.OutboundTransfer) (uint64, error) {
	if err := r.ledger.Burn(req.From, r.authority, req.Amount); err != nil {
		return 0, err
	}
	r.sent = append(r.sent, req)
	return uint64(len(r.sent)), nil
}

func (r *fakeRelay) TransferWrapped(req *agreement.OutboundTransfer) (uint64, error) {
	return r.transfer(req)
}

func (r *fakeRelay) TransferWrappedWithPayload(req *agreement.OutboundTransfer) (uint64, error) {
	return r.transfer(req)
}

func (r *fakeRelay) TransferAuthority() agreement.Address {
	return r.authority
}

type fakeGateways map[uint16]agreement.ForeignAddress

func (g fakeGateways) GatewayAddress(chain uint16) (agreement.ForeignAddress, bool, error) {
	a, ok := g[chain]
	return a, ok, nil
}

type recorder struct {
	events []*agreement.Event
}

func (r *recorder) Emit(ev *agreement.Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) names() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Name
	}
	return out
}

const sourceChain uint16 = 2

type harness struct {
	book     *addressing.Book
	ledger   *fakeLedger
	relay    *fakeRelay
	gateways fakeGateways
	events   *recorder
	settler  *Settler
	c        *custodian.Custodian
	token    agreement.ForeignAddress
	seq      uint64
}

func newHarness(limit uint64) *harness {
	book := &addressing.Book{
		Gateway:     agreement.Address(mycommon.RandBytes32()),
		TokenBridge: agreement.Address(mycommon.RandBytes32()),
		Token:       agreement.Address(mycommon.RandBytes32()),
	}
	token := agreement.ForeignAddress(mycommon.RandBytes32())
	ledger := newFakeLedger()
	relay := newFakeRelay(ledger)

	c := custodian.New(
		agreement.Address(mycommon.RandBytes32()),
		book.Custodian(),
		book.CanonicalAsset(),
		book.WrappedAsset(sourceChain, token),
		book.Custody(),
		book.RelaySender(),
		limit,
	)
	ledger.minters[c.CanonicalAsset] = c.Address
	if err := ledger.CreateAccount(c.WrappedCustody, c.WrappedAsset, c.Address); err != nil {
		panic(err)
	}

	h := &harness{
		book:     book,
		ledger:   ledger,
		relay:    relay,
		gateways: fakeGateways{},
		events:   &recorder{},
		c:        c,
		token:    token,
	}
	h.settler = New(Env{
		Ledger:      ledger,
		Relay:       relay,
		Gateways:    h.gateways,
		Accounts:    book,
		Events:      h.events,
		SourceChain: sourceChain,
		SourceToken: token,
	})
	return h
}

func (h *harness) post(recipient agreement.Address, amount uint64) common.Hash {
	h.seq++
	return h.relay.post(&agreement.TransferMessage{
		EmitterChain: sourceChain,
		Sequence:     h.seq,
		Amount:       amount,
		TokenChain:   sourceChain,
		TokenAddress: h.token,
		Redeemer:     h.c.Address,
		ToChain:      1,
		Payload:      recipient[:],
	})
}

func (h *harness) canonical(owner agreement.Address) uint64 {
	return h.ledger.balance(h.book.TokenAccount(owner, h.c.CanonicalAsset))
}

func (h *harness) wrapped(owner agreement.Address) uint64 {
	return h.ledger.balance(h.book.TokenAccount(owner, h.c.WrappedAsset))
}

func (h *harness) custody() uint64 {
	return h.ledger.balance(h.c.WrappedCustody)
}
