package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/gateway"
)

// fileExists checks if a file exists and is readable
func FileExists(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer file.Close()
	return true
}

// Text form of gateway.GatewayConfig, shared by the server and the user
// tool so both derive the same addresses.
type GatewayParams struct {
	GatewayProgram     string // 32 bytes hex
	TokenBridgeProgram string // 32 bytes hex
	TokenProgram       string // 32 bytes hex
	ChainId            string // relay id of this chain
	SourceTokenChain   string // relay id of the source token's chain
	SourceTokenAddress string // 32 bytes hex
	Decimals           string // defaults to 8
}

func (p *GatewayParams) GatewayConfig() (*gateway.GatewayConfig, error) {
	var (
		cfg gateway.GatewayConfig
		err error
	)

	if cfg.Programs.Gateway, err = parseAddress("gateway program", p.GatewayProgram); err != nil {
		return nil, err
	}
	if cfg.Programs.TokenBridge, err = parseAddress("token bridge program", p.TokenBridgeProgram); err != nil {
		return nil, err
	}
	if cfg.Programs.Token, err = parseAddress("token program", p.TokenProgram); err != nil {
		return nil, err
	}
	if cfg.ChainID, err = ParseChainID(p.ChainId); err != nil {
		return nil, err
	}
	if cfg.SourceChain, err = ParseChainID(p.SourceTokenChain); err != nil {
		return nil, err
	}
	if cfg.SourceToken, err = agreement.ParseForeignAddress(p.SourceTokenAddress); err != nil {
		return nil, fmt.Errorf("source token address: %w", err)
	}

	cfg.Decimals = 8
	if p.Decimals != "" {
		d, err := strconv.ParseUint(p.Decimals, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("decimals: %w", err)
		}
		cfg.Decimals = uint8(d)
	}
	return &cfg, nil
}

func parseAddress(what, s string) (agreement.Address, error) {
	a, err := agreement.ParseAddress(s)
	if err != nil {
		return a, fmt.Errorf("%s: %w", what, err)
	}
	return a, nil
}

func ParseChainID(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid chain id %q: %w", s, err)
	}
	return uint16(v), nil
}

func ParseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}
