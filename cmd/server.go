// Server = db/state + token ledger + relay + gateway + http reporter + grpc health.
// All components are configured via envionment variables (strings!).

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/custodian"
	"github.com/TEENet-io/wormhole-gateway/database"
	"github.com/TEENet-io/wormhole-gateway/gateway"
	"github.com/TEENet-io/wormhole-gateway/relay"
	"github.com/TEENet-io/wormhole-gateway/reporter"
	"github.com/TEENet-io/wormhole-gateway/state"
	"github.com/TEENet-io/wormhole-gateway/tokenledger"
)

// Default params for server.
// More often we don't recommend users to tweak those.
// So we list them here.
const (
	frequencyToRefreshHealth = 5 * time.Second

	// event logger config
	CHANNEL_BUFFER_SIZE = 10
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type GatewayServerConfig struct {
	GatewayParams

	// state side
	DbFilePath string // db file path

	// Bootstrap. When AuthorityPriv is set and the gateway is not
	// initialized yet, the server deploys the assets and initializes the
	// custodian with the key's address as authority.
	AuthorityPriv string
	MintingLimit  string

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080

	// Grpc side
	GrpcPort string // eg. 9090, empty to disable
}

// Stores over one sqlite file, and the gateway bound to them.
type GatewayStores struct {
	Db      *sql.DB
	StateDb *state.StateDB
	Ledger  *tokenledger.Ledger
	Relay   *relay.Relay
	Gateway *gateway.Gateway
}

// OpenGateway opens the db file and wires the stores into a gateway.
func OpenGateway(dbFilePath string, params *GatewayParams) (*GatewayStores, error) {
	cfg, err := params.GatewayConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.OpenSQLite(dbFilePath)
	if err != nil {
		return nil, fmt.Errorf("open db file: %w", err)
	}

	gs := &GatewayStores{Db: db}
	if gs.StateDb, err = state.NewStateDB(db, &cfg.Programs); err != nil {
		gs.Close()
		return nil, fmt.Errorf("create state db: %w", err)
	}
	if gs.Ledger, err = tokenledger.NewLedger(db); err != nil {
		gs.Close()
		return nil, fmt.Errorf("create token ledger: %w", err)
	}
	if gs.Relay, err = relay.New(db, &relay.Config{ChainID: cfg.ChainID}, &cfg.Programs); err != nil {
		gs.Close()
		return nil, fmt.Errorf("create relay: %w", err)
	}
	gs.Gateway = gateway.New(db, cfg, gs.StateDb, gs.Ledger, gs.Relay)
	return gs, nil
}

func (gs *GatewayStores) Close() {
	if gs.Relay != nil {
		gs.Relay.Close()
	}
	if gs.Ledger != nil {
		gs.Ledger.Close()
	}
	if gs.StateDb != nil {
		gs.StateDb.Close()
	}
	gs.Db.Close()
}

// GatewayServer holds the objects that consists of the gateway server.
type GatewayServer struct {
	*GatewayStores

	HttpReporter   *reporter.HttpReporter
	HealthReporter *reporter.HealthReporter
}

// NewGatewayServer creates a new gateway server.
// ctx is used for parental context to cancel the operation of gateway server.
// wg is used to wait for all the goroutines inside the server (reporters, event logger) to finish.
func NewGatewayServer(gsc *GatewayServerConfig, ctx context.Context, wg *sync.WaitGroup) (*GatewayServer, error) {
	stores, err := OpenGateway(gsc.DbFilePath, &gsc.GatewayParams)
	if err != nil {
		logger.Errorf("failed to open gateway: %v", err)
		return nil, err
	}
	g := stores.Gateway

	if gsc.AuthorityPriv != "" {
		if err := bootstrap(ctx, g, gsc); err != nil {
			stores.Close()
			return nil, err
		}
	}

	if c, err := g.Custodian(); err == nil {
		logger.WithField("custodian", c.String()).Info("Gateway custodian")
	} else {
		logger.Warn("Gateway not initialized yet")
	}
	book := g.Book()
	logger.WithField("address", agreement.AddressHex(book.Custodian())).Info("Custodian address")
	logger.WithField("address", agreement.AddressHex(book.CanonicalAsset())).Info("Canonical asset")

	var lis net.Listener
	if gsc.GrpcPort != "" {
		lis, err = net.Listen("tcp", net.JoinHostPort(gsc.HttpIp, gsc.GrpcPort))
		if err != nil {
			logger.Errorf("failed to listen on grpc port: %v", err)
			stores.Close()
			return nil, err
		}
	}

	gs := &GatewayServer{GatewayStores: stores}

	// Log every committed event.
	evCh := make(chan *agreement.Event, CHANNEL_BUFFER_SIZE)
	sub := g.SubscribeEvents(evCh)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				if err != nil {
					logger.WithError(err).Error("event subscription")
				}
				return
			case ev := <-evCh:
				logger.WithField("event", ev.String()).Info("Gateway event")
			}
		}
	}()

	// *** Setup a http server to report status ***
	gs.HttpReporter = reporter.NewHttpReporter(gsc.HttpIp, gsc.HttpPort, g)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gs.HttpReporter.Run(ctx); err != nil {
			logger.Errorf("http reporter stopped: %v", err)
		}
	}()

	// *** Setup a grpc health service ***
	if lis != nil {
		gs.HealthReporter = reporter.NewHealthReporter(g)

		wg.Add(1)
		go func() {
			defer wg.Done()
			gs.HealthReporter.Watch(ctx, frequencyToRefreshHealth)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gs.HealthReporter.Serve(lis); err != nil {
				logger.Errorf("grpc health stopped: %v", err)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			gs.HealthReporter.Stop()
		}()
	}

	// Give it some time to start the http server
	time.Sleep(500 * time.Millisecond)

	return gs, nil
}

// bootstrap deploys and initializes a fresh gateway.
func bootstrap(ctx context.Context, g *gateway.Gateway, gsc *GatewayServerConfig) error {
	if _, err := g.Custodian(); !errors.Is(err, custodian.ErrNotInitialized) {
		return err
	}

	authority, err := AddressOfKey(gsc.AuthorityPriv)
	if err != nil {
		return fmt.Errorf("authority key: %w", err)
	}
	limit, err := ParseAmount(gsc.MintingLimit)
	if err != nil {
		return fmt.Errorf("minting limit: %w", err)
	}

	if err := g.Deploy(ctx, authority); err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	if _, err := g.Initialize(ctx, authority, limit); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return nil
}

// Create, then start the gateway server and wait.
// It contains a prepared gateway server and context + waitgroup.
// Press Ctrl-C to kill the server.
func StartGatewayServerAndWait(gsc *GatewayServerConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up a signal channel to listen for Ctrl-C (SIGINT) or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Launch a new goroutine to handle the signal
	go func() {
		sig := <-sigCh
		fmt.Printf("Received signal: %v, cancelling context...\n", sig)
		cancel()
	}()

	var wg sync.WaitGroup

	gs, err := NewGatewayServer(gsc, ctx, &wg)
	if err != nil {
		logger.Fatalf("failed to create gateway server: %v", err)
		return
	}

	// wait for all routines to finish
	wg.Wait()
	gs.Close()
}
