package gateway

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/custodian"
	"github.com/TEENet-io/wormhole-gateway/relay"
	"github.com/TEENet-io/wormhole-gateway/state"
)

// Read-only views. They run outside the operation lock on the bare db and
// see only committed state.

func (g *Gateway) Custodian() (*custodian.Custodian, error) {
	return g.statedb.Reader().LoadCustodian()
}

func (g *Gateway) GatewayAddress(chain uint16) (agreement.ForeignAddress, bool, error) {
	return g.statedb.Reader().GatewayAddress(chain)
}

func (g *Gateway) GatewayInfos() ([]*custodian.GatewayInfo, error) {
	return g.statedb.Reader().GatewayInfos()
}

func (g *Gateway) Events(after int64, limit int) ([]*state.EventRecord, error) {
	return g.statedb.Reader().Events(after, limit)
}

func (g *Gateway) ClaimExists(hash common.Hash) (bool, error) {
	ledger := g.ledger.Reader()
	return g.relay.Session(g.db, ledger).ClaimExists(hash)
}

func (g *Gateway) Outbound(after uint64, limit int) ([]*relay.OutboundRecord, error) {
	ledger := g.ledger.Reader()
	return g.relay.Session(g.db, ledger).Outbound(after, limit)
}

func (g *Gateway) TokenAccount(addr agreement.Address) (*agreement.TokenAccount, error) {
	return g.ledger.Reader().Account(addr)
}

func (g *Gateway) AccountsByOwner(owner agreement.Address) ([]*agreement.TokenAccount, error) {
	return g.ledger.Reader().AccountsByOwner(owner)
}

// Balances returns the canonical and wrapped balances of owner. Missing
// accounts count as zero.
func (g *Gateway) Balances(owner agreement.Address) (canonical, wrapped uint64, err error) {
	c, err := g.Custodian()
	if err != nil {
		return 0, 0, err
	}
	book := g.Book()
	accts, err := g.AccountsByOwner(owner)
	if err != nil {
		return 0, 0, err
	}
	for _, a := range accts {
		switch a.Address {
		case book.TokenAccount(owner, c.CanonicalAsset):
			canonical = a.Amount
		case book.TokenAccount(owner, c.WrappedAsset):
			wrapped = a.Amount
		}
	}
	return canonical, wrapped, nil
}
