package custodian

import (
	"fmt"

	"github.com/aptos-labs/aptos-go-sdk/bcs"

	"github.com/TEENet-io/wormhole-gateway/agreement"
)

// GatewayInfo is the counterpart gateway registered for a remote chain.
type GatewayInfo struct {
	Chain   uint16
	Address agreement.ForeignAddress
}

func (g *GatewayInfo) MarshalBCS(ser *bcs.Serializer) {
	ser.U16(g.Chain)
	ser.Struct(&g.Address)
}

func (g *GatewayInfo) UnmarshalBCS(des *bcs.Deserializer) {
	g.Chain = des.U16()
	des.Struct(&g.Address)
}

func (g *GatewayInfo) Encode() ([]byte, error) {
	return bcs.Serialize(g)
}

func DecodeGatewayInfo(b []byte) (*GatewayInfo, error) {
	g := &GatewayInfo{}
	if err := bcs.Deserialize(g, b); err != nil {
		return nil, fmt.Errorf("decode gateway info: %w", err)
	}
	return g, nil
}

// UpdateGatewayAddress authorizes a registry write. The write itself is
// done by the caller.
func (c *Custodian) UpdateGatewayAddress(caller agreement.Address, chain uint16, addr agreement.ForeignAddress) (*GatewayInfo, error) {
	if err := c.checkAuthority(caller); err != nil {
		return nil, err
	}
	return &GatewayInfo{Chain: chain, Address: addr}, nil
}
