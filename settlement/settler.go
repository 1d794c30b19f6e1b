package settlement

import (
	"errors"

	"github.com/TEENet-io/wormhole-gateway/agreement"
)

// AccountResolver maps an owner and an asset to the owner's token account.
type AccountResolver interface {
	TokenAccount(owner, asset agreement.Address) agreement.Address
}

// Env binds a Settler to its collaborators. SourceChain and SourceToken
// name the only remote asset accepted inbound.
type Env struct {
	Ledger   agreement.TokenLedger
	Relay    agreement.Relay
	Gateways agreement.GatewayRegistry
	Accounts AccountResolver
	Events   agreement.EventEmitter

	SourceChain uint16
	SourceToken agreement.ForeignAddress
}

// Settler runs the settlement flows against a custodian record.
//
// Every flow works on a clone of the record and copies it back only when
// all steps succeeded. Collaborator side effects of a failed flow must be
// discarded by the caller, which is why a Settler is meant to be bound to
// a single transaction. Events emitted by a failed flow are discarded the
// same way.
type Settler struct {
	env Env
}

func New(env Env) *Settler {
	return &Settler{env: env}
}

func (s *Settler) emit(name string, data any) {
	if s.env.Events == nil {
		return
	}
	s.env.Events.Emit(&agreement.Event{Name: name, Data: data})
}

// ensureAccount creates the token account at addr when it does not exist.
func (s *Settler) ensureAccount(addr, asset, owner agreement.Address) error {
	_, err := s.env.Ledger.Account(addr)
	if err == nil {
		return nil
	}
	if !errors.Is(err, agreement.ErrAccountNotFound) {
		return err
	}
	return s.env.Ledger.CreateAccount(addr, asset, owner)
}
