// This is a http type of reporter.
// It fetches committed gateway state
// and publishes it on the http routes.

package reporter

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/common"
	"github.com/TEENet-io/wormhole-gateway/custodian"
	"github.com/TEENet-io/wormhole-gateway/relay"
	"github.com/TEENet-io/wormhole-gateway/state"
)

const (
	ROUTE_HELLO     = "/hello"
	ROUTE_CUSTODIAN = "/custodian"
	ROUTE_GATEWAYS  = "/gateways"
	ROUTE_CLAIMS    = "/claims"
	ROUTE_EVENTS    = "/events"
	ROUTE_ACCOUNTS  = "/accounts"
	ROUTE_OUTBOUND  = "/outbound"

	defaultPageSize = 100
	maxPageSize     = 1000
)

// Source is the read side of the gateway.
type Source interface {
	Custodian() (*custodian.Custodian, error)
	GatewayAddress(chain uint16) (agreement.ForeignAddress, bool, error)
	GatewayInfos() ([]*custodian.GatewayInfo, error)
	Events(after int64, limit int) ([]*state.EventRecord, error)
	ClaimExists(hash ethcommon.Hash) (bool, error)
	Outbound(after uint64, limit int) ([]*relay.OutboundRecord, error)
	AccountsByOwner(owner agreement.Address) ([]*agreement.TokenAccount, error)
	Balances(owner agreement.Address) (canonical, wrapped uint64, err error)
}

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data source
	source Source
}

func NewHttpReporter(serverIP string, serverPort string, source Source) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		source:     source,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_CUSTODIAN, h.Custodian)
	router.GET(ROUTE_GATEWAYS, h.Gateways)
	router.GET(ROUTE_GATEWAYS+"/:chain", h.Gateway)
	router.GET(ROUTE_CLAIMS+"/:hash", h.Claim)
	router.GET(ROUTE_EVENTS, h.Events)
	router.GET(ROUTE_ACCOUNTS+"/:owner", h.Accounts)
	router.GET(ROUTE_OUTBOUND, h.Outbound)

	return router
}

// Run serves until ctx is cancelled.
func (h *HttpReporter) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    h.serverIP + ":" + h.serverPort,
		Handler: h.SetupRouter(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("http reporter shutdown")
		}
	}()

	logger.WithField("address", srv.Addr).Info("http reporter listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Example route.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (h *HttpReporter) Custodian(c *gin.Context) {
	cust, err := h.source.Custodian()
	if errors.Is(err, custodian.ErrNotInitialized) {
		c.JSON(http.StatusNotFound, gin.H{"error": "gateway not initialized"})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newCustodianView(cust)})
}

func (h *HttpReporter) Gateways(c *gin.Context) {
	infos, err := h.source.GatewayInfos()
	if err != nil {
		internalError(c, err)
		return
	}
	views := make([]*GatewayView, 0, len(infos))
	for _, info := range infos {
		views = append(views, &GatewayView{Chain: info.Chain, Gateway: info.Address.String()})
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (h *HttpReporter) Gateway(c *gin.Context) {
	chain, err := strconv.ParseUint(c.Param("chain"), 10, 16)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chain id"})
		return
	}
	addr, ok, err := h.source.GatewayAddress(uint16(chain))
	if err != nil {
		internalError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No gateway registered"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": &GatewayView{Chain: uint16(chain), Gateway: addr.String()}})
}

func (h *HttpReporter) Claim(c *gin.Context) {
	s := c.Param("hash")
	if !common.IsHexBytes32(s) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message hash"})
		return
	}
	hash := ethcommon.HexToHash(s)
	claimed, err := h.source.ClaimExists(hash)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": &ClaimView{Hash: hash.String(), Claimed: claimed}})
}

// page reads the after & limit query parameters.
func page(c *gin.Context) (after uint64, limit int, ok bool) {
	var err error
	if s := c.Query("after"); s != "" {
		after, err = strconv.ParseUint(s, 10, 63)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid after"})
			return 0, 0, false
		}
	}
	limit = defaultPageSize
	if s := c.Query("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return 0, 0, false
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return after, limit, true
}

func (h *HttpReporter) Events(c *gin.Context) {
	after, limit, ok := page(c)
	if !ok {
		return
	}
	evs, err := h.source.Events(int64(after), limit)
	if err != nil {
		internalError(c, err)
		return
	}
	if evs == nil {
		evs = []*state.EventRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"data": evs})
}

func (h *HttpReporter) Accounts(c *gin.Context) {
	owner, err := agreement.ParseAddress(c.Param("owner"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner address"})
		return
	}
	canonical, wrapped, err := h.source.Balances(owner)
	if errors.Is(err, custodian.ErrNotInitialized) {
		c.JSON(http.StatusNotFound, gin.H{"error": "gateway not initialized"})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	accts, err := h.source.AccountsByOwner(owner)
	if err != nil {
		internalError(c, err)
		return
	}

	v := &BalancesView{
		Owner:     hexAddr(owner),
		Canonical: canonical,
		Wrapped:   wrapped,
		Accounts:  make([]*AccountView, 0, len(accts)),
	}
	for _, a := range accts {
		v.Accounts = append(v.Accounts, newAccountView(a))
	}
	c.JSON(http.StatusOK, gin.H{"data": v})
}

func (h *HttpReporter) Outbound(c *gin.Context) {
	after, limit, ok := page(c)
	if !ok {
		return
	}
	recs, err := h.source.Outbound(after, limit)
	if err != nil {
		internalError(c, err)
		return
	}
	views := make([]*OutboundView, 0, len(recs))
	for _, r := range recs {
		views = append(views, newOutboundView(r))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}
