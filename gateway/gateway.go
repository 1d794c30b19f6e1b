package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wormhole-gateway/addressing"
	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/custodian"
	"github.com/TEENet-io/wormhole-gateway/database"
	"github.com/TEENet-io/wormhole-gateway/relay"
	"github.com/TEENet-io/wormhole-gateway/settlement"
	"github.com/TEENet-io/wormhole-gateway/state"
	"github.com/TEENet-io/wormhole-gateway/tokenledger"
)

// Gateway serializes every operation on the custodian record. Each call
// runs in one sqlite transaction spanning the record, token balances,
// claim markers and the event log, so a failed call leaves no trace.
// Events are published to subscribers only after commit.
type Gateway struct {
	cfg *GatewayConfig
	db  *sql.DB

	statedb *state.StateDB
	ledger  *tokenledger.Ledger
	relay   *relay.Relay

	mu   sync.Mutex
	feed event.Feed
}

func New(db *sql.DB, cfg *GatewayConfig, statedb *state.StateDB, ledger *tokenledger.Ledger, r *relay.Relay) *Gateway {
	return &Gateway{
		cfg:     cfg,
		db:      db,
		statedb: statedb,
		ledger:  ledger,
		relay:   r,
	}
}

func (g *Gateway) Book() *addressing.Book {
	return &g.cfg.Programs
}

// SubscribeEvents delivers every committed event to ch. The publishing
// call blocks until all subscribers took the event, so ch must be drained.
func (g *Gateway) SubscribeEvents(ch chan<- *agreement.Event) event.Subscription {
	return g.feed.Subscribe(ch)
}

type eventBuffer struct {
	events []*agreement.Event
}

func (b *eventBuffer) Emit(ev *agreement.Event) {
	b.events = append(b.events, ev)
}

// txContext is everything an operation may touch, bound to one tx.
type txContext struct {
	st      *state.Session
	ledger  *tokenledger.Session
	relay   *relay.Session
	settler *settlement.Settler
	events  *eventBuffer

	// nil until loaded
	c *custodian.Custodian
}

func (g *Gateway) bind(tx *sql.Tx) *txContext {
	tc := &txContext{
		st:     g.statedb.Session(tx),
		ledger: g.ledger.Session(tx),
		events: &eventBuffer{},
	}
	tc.relay = g.relay.Session(tx, tc.ledger)
	tc.settler = settlement.New(settlement.Env{
		Ledger:      tc.ledger,
		Relay:       tc.relay,
		Gateways:    tc.st,
		Accounts:    g.Book(),
		Events:      tc.events,
		SourceChain: g.cfg.SourceChain,
		SourceToken: g.cfg.SourceToken,
	})
	return tc
}

// run executes fn in a transaction and publishes its events on success.
// Subscribers are fed after the lock is released, so a slow subscriber
// only holds up the call that published.
func (g *Gateway) run(ctx context.Context, op string, fields logger.Fields, fn func(tc *txContext) error) error {
	events, err := g.commit(ctx, fn)

	entry := logger.WithFields(fields).WithField("op", op)
	if err != nil {
		if e, ok := custodian.AsError(err); ok {
			entry.WithField("code", e.Code).Warn("rejected")
		} else {
			entry.WithError(err).Error("failed")
		}
		return err
	}
	entry.Debug("done")

	for _, ev := range events {
		g.feed.Send(ev)
	}
	return nil
}

// commit runs fn and records its events under the gateway lock.
func (g *Gateway) commit(ctx context.Context, fn func(tc *txContext) error) ([]*agreement.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var events []*agreement.Event
	err := database.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		tc := g.bind(tx)
		if err := fn(tc); err != nil {
			return err
		}
		for _, ev := range tc.events.events {
			if _, err := tc.st.InsertEvent(ev); err != nil {
				return fmt.Errorf("record event %s: %w", ev.Name, err)
			}
		}
		events = tc.events.events
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// execute is run with the custodian record loaded before fn and saved
// after it.
func (g *Gateway) execute(ctx context.Context, op string, fields logger.Fields, fn func(tc *txContext) error) error {
	return g.run(ctx, op, fields, func(tc *txContext) error {
		c, err := tc.st.LoadCustodian()
		if err != nil {
			return err
		}
		tc.c = c
		if err := fn(tc); err != nil {
			return err
		}
		return tc.st.SaveCustodian(tc.c)
	})
}

// Initialize creates the custodian record and its custody account. The
// canonical asset and the wrapped asset of the source token must exist.
func (g *Gateway) Initialize(ctx context.Context, authority agreement.Address, mintingLimit uint64) (*custodian.Custodian, error) {
	book := g.Book()
	c := custodian.New(
		authority,
		book.Custodian(),
		book.CanonicalAsset(),
		book.WrappedAsset(g.cfg.SourceChain, g.cfg.SourceToken),
		book.Custody(),
		book.RelaySender(),
		mintingLimit,
	)

	fields := logger.Fields{
		"authority": agreement.AddressHex(authority),
		"limit":     mintingLimit,
	}
	err := g.run(ctx, "initialize", fields, func(tc *txContext) error {
		if _, err := tc.st.LoadCustodian(); err == nil {
			return custodian.ErrAlreadyInitialized
		}
		if _, err := tc.ledger.Asset(c.CanonicalAsset); err != nil {
			return fmt.Errorf("canonical asset: %w", err)
		}
		if err := tc.ledger.CreateAccount(c.WrappedCustody, c.WrappedAsset, c.Address); err != nil {
			return fmt.Errorf("create custody: %w", err)
		}
		return tc.st.CreateCustodian(c)
	})
	if err != nil {
		return nil, err
	}

	logger.WithField("custodian", c.String()).Info("gateway initialized")
	return c, nil
}

func (g *Gateway) ProposeAuthority(ctx context.Context, caller, next agreement.Address) error {
	return g.execute(ctx, "propose_authority", logger.Fields{"next": agreement.AddressHex(next)}, func(tc *txContext) error {
		return tc.c.ProposeAuthority(caller, next)
	})
}

func (g *Gateway) CancelPendingAuthority(ctx context.Context, caller agreement.Address) error {
	return g.execute(ctx, "cancel_authority", nil, func(tc *txContext) error {
		return tc.c.CancelPendingAuthority(caller)
	})
}

func (g *Gateway) AcceptAuthority(ctx context.Context, caller agreement.Address) error {
	return g.execute(ctx, "accept_authority", logger.Fields{"caller": agreement.AddressHex(caller)}, func(tc *txContext) error {
		return tc.c.AcceptAuthority(caller)
	})
}

func (g *Gateway) SetMintingLimit(ctx context.Context, caller agreement.Address, limit uint64) error {
	return g.execute(ctx, "set_minting_limit", logger.Fields{"limit": limit}, func(tc *txContext) error {
		if err := tc.c.SetMintingLimit(caller, limit); err != nil {
			return err
		}
		tc.events.Emit(&agreement.Event{
			Name: agreement.EventMintingLimitUpdated,
			Data: &agreement.MintingLimitUpdatedEvent{MintingLimit: limit},
		})
		return nil
	})
}

func (g *Gateway) SetPaused(ctx context.Context, caller agreement.Address, paused bool) error {
	return g.execute(ctx, "set_paused", logger.Fields{"paused": paused}, func(tc *txContext) error {
		return tc.c.SetPaused(caller, paused)
	})
}

func (g *Gateway) Pause(ctx context.Context, caller agreement.Address) error {
	return g.execute(ctx, "pause", nil, func(tc *txContext) error {
		return tc.c.Pause(caller)
	})
}

func (g *Gateway) Unpause(ctx context.Context, caller agreement.Address) error {
	return g.execute(ctx, "unpause", nil, func(tc *txContext) error {
		return tc.c.Unpause(caller)
	})
}

func (g *Gateway) UpdateGatewayAddress(ctx context.Context, caller agreement.Address, chain uint16, addr agreement.ForeignAddress) error {
	fields := logger.Fields{"chain": chain, "gateway": addr.String()}
	return g.execute(ctx, "update_gateway_address", fields, func(tc *txContext) error {
		info, err := tc.c.UpdateGatewayAddress(caller, chain, addr)
		if err != nil {
			return err
		}
		if err := tc.st.PutGatewayInfo(info); err != nil {
			return err
		}
		tc.events.Emit(&agreement.Event{
			Name: agreement.EventGatewayAddressUpdated,
			Data: &agreement.GatewayAddressUpdatedEvent{Chain: chain, Gateway: addr},
		})
		return nil
	})
}

// ReceiveTransfer settles the posted transfer under hash.
func (g *Gateway) ReceiveTransfer(ctx context.Context, hash common.Hash) (*settlement.Receipt, error) {
	var receipt *settlement.Receipt
	err := g.execute(ctx, "receive", logger.Fields{"hash": hash.String()}, func(tc *txContext) error {
		r, err := tc.settler.Receive(tc.c, hash)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// SendWrapped returns the relay sequence of the outbound message.
func (g *Gateway) SendWrapped(ctx context.Context, req *settlement.SendRequest) (uint64, error) {
	var seq uint64
	err := g.execute(ctx, "send_wrapped", sendFields(req), func(tc *txContext) error {
		s, err := tc.settler.SendWrapped(tc.c, req)
		seq = s
		return err
	})
	return seq, err
}

func (g *Gateway) SendGateway(ctx context.Context, req *settlement.SendRequest) (uint64, error) {
	var seq uint64
	err := g.execute(ctx, "send_gateway", sendFields(req), func(tc *txContext) error {
		s, err := tc.settler.SendGateway(tc.c, req)
		seq = s
		return err
	})
	return seq, err
}

func sendFields(req *settlement.SendRequest) logger.Fields {
	return logger.Fields{
		"sender": agreement.AddressHex(req.Sender),
		"chain":  req.RecipientChain,
		"amount": req.Amount,
	}
}

func (g *Gateway) DepositWrapped(ctx context.Context, depositor agreement.Address, amount uint64) error {
	fields := logger.Fields{"depositor": agreement.AddressHex(depositor), "amount": amount}
	return g.execute(ctx, "deposit_wrapped", fields, func(tc *txContext) error {
		return tc.settler.DepositWrapped(tc.c, depositor, amount)
	})
}
