package gateway

import (
	"github.com/TEENet-io/wormhole-gateway/addressing"
	"github.com/TEENet-io/wormhole-gateway/agreement"
)

type GatewayConfig struct {
	// Identities of the gateway, relay and token programs. Every other
	// address is derived from them.
	Programs addressing.Book

	// Relay id of the host chain. Inbound transfers must target it.
	ChainID uint16

	// The only remote asset accepted inbound.
	SourceChain uint16
	SourceToken agreement.ForeignAddress

	// Decimals of the canonical and wrapped assets created by Deploy.
	Decimals uint8
}
