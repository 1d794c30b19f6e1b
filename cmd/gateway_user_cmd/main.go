package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/cmd"
	mycommon "github.com/TEENet-io/wormhole-gateway/common"
	"github.com/TEENet-io/wormhole-gateway/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "GATEWAY_USER_CONFIG"
)

func main() {
	// `gateway_user_cmd keygen` prints a fresh key and its address.
	if len(os.Args) > 1 && os.Args[1] == "keygen" {
		keygen()
		return
	}

	// Tool to read environment variables
	viper.AutomaticEnv()

	// Accessing an environment variable of configuration file location.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	fmt.Printf("Gateway user configuration file = %s\n", _config_file)

	// See if file exists
	if !cmd.FileExists(_config_file) {
		fmt.Printf("Gateway user configuration file not found: %s\n", _config_file)
		return
	}

	// Read from config file.
	success := initializeViper(_config_file)
	if !success {
		return
	}

	logconfig.ConfigLogger(viper.GetString("LOG_LEVEL"))

	guc := PrepareGatewayUserConfig()
	gu, err := cmd.NewGatewayUser(guc)
	if err != nil {
		fmt.Printf("Error creating gateway user: %s\n", err)
		return
	}

	fmt.Println(strings.Repeat("=", 30))
	fmt.Println("Welcome to the gateway user command line tool.")
	fmt.Printf("Database: %s\n", guc.DbFilePath)
	fmt.Printf("Your address: %s\n", gu.GetAddress())

	// *** user interactive program ***

	// Create a cancelable context and signal handler for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handler to catch Ctrl-C.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		_captured := <-sig
		fmt.Printf("\nReceived interrupt signal, shutting down... %v\n", _captured)
		cancel()
		gu.Close()
		os.Exit(0)
	}()

	// gather user inputs
	scanner := bufio.NewScanner(os.Stdin)
	for {
		// Check if context is done (just in case)
		select {
		case <-ctx.Done():
			gu.Close()
			return
		default:
		}

		// Print options
		fmt.Println("What to do:")
		fmt.Println("1) View balance")
		fmt.Println("2) View gateway status (http)")
		fmt.Println("3) Post an inbound transfer to me")
		fmt.Println("4) Redeem an inbound transfer")
		fmt.Println("5) Send back (burn & forward)")
		fmt.Println("6) Send back via registered gateway")
		fmt.Println("7) Deposit wrapped tokens")
		fmt.Println("8) Admin operations")
		fmt.Print("Type option and press Enter: ")

		// Wait for input.
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())

		// Process user input.
		var err error
		switch input {
		case "1":
			err = viewBalance(gu)
		case "2":
			err = viewStatus(gu)
		case "3":
			err = postInbound(ctx, gu, scanner)
		case "4":
			err = redeem(ctx, gu, scanner)
		case "5":
			err = sendBack(ctx, gu, scanner, false)
		case "6":
			err = sendBack(ctx, gu, scanner, true)
		case "7":
			err = deposit(ctx, gu, scanner)
		case "8":
			err = admin(ctx, gu, scanner)
		default:
			fmt.Println("Unknown option, try again.")
		}
		if err != nil {
			fmt.Printf("Error: %s\n", err)
		}
		fmt.Println()
	}
	gu.Close()
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

func PrepareGatewayUserConfig() *cmd.GatewayUserConfig {
	return &cmd.GatewayUserConfig{
		GatewayParams: cmd.GatewayParams{
			GatewayProgram:     viper.GetString("GATEWAY_PROGRAM"),
			TokenBridgeProgram: viper.GetString("TOKEN_BRIDGE_PROGRAM"),
			TokenProgram:       viper.GetString("TOKEN_PROGRAM"),
			ChainId:            viper.GetString("CHAIN_ID"),
			SourceTokenChain:   viper.GetString("SOURCE_TOKEN_CHAIN"),
			SourceTokenAddress: viper.GetString("SOURCE_TOKEN_ADDRESS"),
			Decimals:           viper.GetString("DECIMALS"),
		},
		DbFilePath:  viper.GetString("DB_FILE_PATH"),
		AccountPriv: viper.GetString("ACCOUNT_PRIV"),
		HttpIp:      viper.GetString("HTTP_IP"),
		HttpPort:    viper.GetString("HTTP_PORT"),
	}
}

func keygen() {
	priv, err := cmd.GenPrivateKey()
	if err != nil {
		fmt.Printf("Error generating key: %s\n", err)
		return
	}
	account, err := cmd.NewAccount(priv)
	if err != nil {
		fmt.Printf("Error deriving account: %s\n", err)
		return
	}
	addr := account.AccountAddress()
	fmt.Printf("Private key: %s\n", cmd.PrivateKeyToHex(priv))
	fmt.Printf("Address:     %s\n", mycommon.Prepend0xPrefix(agreement.AddressHex(addr)))
}

func ask(scanner *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	scanner.Scan()
	return strings.TrimSpace(scanner.Text())
}

func askAmount(scanner *bufio.Scanner, prompt string) (uint64, error) {
	return cmd.ParseAmount(ask(scanner, prompt))
}

func askChain(scanner *bufio.Scanner, prompt string) (uint16, error) {
	return cmd.ParseChainID(ask(scanner, prompt))
}

func viewBalance(gu *cmd.GatewayUser) error {
	canonical, wrapped, err := gu.GetBalances()
	if err != nil {
		return err
	}
	fmt.Printf("Your address: %s\n", gu.GetAddress())
	fmt.Printf("Your balance: %d canonical, %d wrapped\n", canonical, wrapped)
	return nil
}

func viewStatus(gu *cmd.GatewayUser) error {
	c, err := gu.Reader.GetCustodian()
	if err != nil {
		return err
	}
	fmt.Printf("Authority:     %s\n", c.Authority)
	if c.PendingAuthority != "" {
		fmt.Printf("Pending:       %s\n", c.PendingAuthority)
	}
	fmt.Printf("Minting limit: %d\n", c.MintingLimit)
	fmt.Printf("Minted:        %d (headroom %d)\n", c.MintedAmount, c.Headroom)
	fmt.Printf("Paused:        %v\n", c.Paused)

	gws, err := gu.Reader.GetGateways()
	if err != nil {
		return err
	}
	for _, gw := range gws {
		fmt.Printf("Gateway chain %d: %s\n", gw.Chain, gw.Gateway)
	}
	return nil
}

func postInbound(ctx context.Context, gu *cmd.GatewayUser, scanner *bufio.Scanner) error {
	amount, err := askAmount(scanner, "Enter amount of source tokens: ")
	if err != nil {
		return err
	}
	hash, err := gu.PostInbound(ctx, amount)
	if err != nil {
		return err
	}
	fmt.Printf("Transfer posted, hash: %s\n", hash.String())
	return nil
}

func redeem(ctx context.Context, gu *cmd.GatewayUser, scanner *bufio.Scanner) error {
	s := ask(scanner, "Enter transfer hash: ")
	if !mycommon.IsHexBytes32(s) {
		return fmt.Errorf("invalid hash: %s", s)
	}
	r, err := gu.Redeem(ctx, common.HexToHash(s))
	if err != nil {
		return err
	}
	fmt.Printf("Redeemed %d on the %s path to %s\n", r.Amount, r.Path, mycommon.Prepend0xPrefix(agreement.AddressHex(r.Recipient)))
	return nil
}

func sendBack(ctx context.Context, gu *cmd.GatewayUser, scanner *bufio.Scanner, viaGateway bool) error {
	chain, err := askChain(scanner, "Enter recipient chain id: ")
	if err != nil {
		return err
	}
	recipient, err := agreement.ParseForeignAddress(ask(scanner, "Enter recipient (32 bytes hex): "))
	if err != nil {
		return err
	}
	amount, err := askAmount(scanner, "Enter amount: ")
	if err != nil {
		return err
	}

	var seq uint64
	if viaGateway {
		seq, err = gu.SendGateway(ctx, amount, chain, recipient)
	} else {
		seq, err = gu.SendWrapped(ctx, amount, chain, recipient)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Sent, relay sequence: %d\n", seq)
	return nil
}

func deposit(ctx context.Context, gu *cmd.GatewayUser, scanner *bufio.Scanner) error {
	amount, err := askAmount(scanner, "Enter amount of wrapped tokens: ")
	if err != nil {
		return err
	}
	if err := gu.Deposit(ctx, amount); err != nil {
		return err
	}
	fmt.Println("Deposited.")
	return nil
}

func admin(ctx context.Context, gu *cmd.GatewayUser, scanner *bufio.Scanner) error {
	fmt.Println("a) Propose new authority")
	fmt.Println("b) Cancel pending authority")
	fmt.Println("c) Accept authority")
	fmt.Println("d) Set minting limit")
	fmt.Println("e) Pause")
	fmt.Println("f) Unpause")
	fmt.Println("g) Register gateway address")

	switch ask(scanner, "Type option and press Enter: ") {
	case "a":
		next, err := agreement.ParseAddress(ask(scanner, "Enter new authority address: "))
		if err != nil {
			return err
		}
		return gu.ProposeAuthority(ctx, next)
	case "b":
		return gu.CancelPendingAuthority(ctx)
	case "c":
		return gu.AcceptAuthority(ctx)
	case "d":
		limit, err := askAmount(scanner, "Enter new minting limit: ")
		if err != nil {
			return err
		}
		return gu.SetMintingLimit(ctx, limit)
	case "e":
		return gu.Pause(ctx)
	case "f":
		return gu.Unpause(ctx)
	case "g":
		chain, err := askChain(scanner, "Enter chain id: ")
		if err != nil {
			return err
		}
		addr, err := agreement.ParseForeignAddress(ask(scanner, "Enter gateway address (32 bytes hex): "))
		if err != nil {
			return err
		}
		return gu.UpdateGatewayAddress(ctx, chain, addr)
	default:
		fmt.Println("Unknown option.")
		return nil
	}
}
