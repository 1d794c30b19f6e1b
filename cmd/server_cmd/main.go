package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/TEENet-io/wormhole-gateway/cmd"
	"github.com/TEENet-io/wormhole-gateway/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "GATEWAY_CONFIG"
)

func main() {
	// Tool to read environment variables
	viper.AutomaticEnv()

	// Accessing an environment variable of configuration file location.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	fmt.Printf("Gateway server configuration file = %s\n", _config_file)

	// See if file exists
	if !cmd.FileExists(_config_file) {
		fmt.Printf("Gateway server configuration file not found: %s\n", _config_file)
		return
	}

	// Read from config file.
	success := initializeViper(_config_file)
	if !success {
		return
	}

	logconfig.ConfigLogger(viper.GetString("LOG_LEVEL"))

	// Make the configuration
	gsc := PrepareGatewayServerConfig()

	fmt.Println("Starting gateway server... press Ctrl+C to kill the server")
	// Start server and block.
	cmd.StartGatewayServerAndWait(gsc)
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

// PrepareGatewayServerConfig reads configuration variables and returns a GatewayServerConfig.
func PrepareGatewayServerConfig() *cmd.GatewayServerConfig {
	return &cmd.GatewayServerConfig{
		GatewayParams: PrepareGatewayParams(),
		// state side
		DbFilePath: viper.GetString("DB_FILE_PATH"),
		// bootstrap
		AuthorityPriv: viper.GetString("AUTHORITY_PRIV"),
		MintingLimit:  viper.GetString("MINTING_LIMIT"),
		// Http side
		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),
		// Grpc side
		GrpcPort: viper.GetString("GRPC_PORT"),
	}
}

func PrepareGatewayParams() cmd.GatewayParams {
	return cmd.GatewayParams{
		GatewayProgram:     viper.GetString("GATEWAY_PROGRAM"),
		TokenBridgeProgram: viper.GetString("TOKEN_BRIDGE_PROGRAM"),
		TokenProgram:       viper.GetString("TOKEN_PROGRAM"),
		ChainId:            viper.GetString("CHAIN_ID"),
		SourceTokenChain:   viper.GetString("SOURCE_TOKEN_CHAIN"),
		SourceTokenAddress: viper.GetString("SOURCE_TOKEN_ADDRESS"),
		Decimals:           viper.GetString("DECIMALS"),
	}
}
