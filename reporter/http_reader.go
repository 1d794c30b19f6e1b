// Reader is a client facility to read the output of a http reporter.

package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/TEENet-io/wormhole-gateway/state"
)

type HttpReader struct {
	serverIP   string // listen ip
	serverPort string // listen port

	client *http.Client
}

func NewHttpReader(serverIP string, serverPort string) *HttpReader {
	return &HttpReader{
		serverIP:   serverIP,
		serverPort: serverPort,
		client:     http.DefaultClient,
	}
}

func (hr *HttpReader) url(path string) string {
	return "http://" + hr.serverIP + ":" + hr.serverPort + path
}

func (hr *HttpReader) fetch(path string) (int, []byte, error) {
	resp, err := hr.client.Get(hr.url(path))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// get decodes the data field of a successful response into out.
func (hr *HttpReader) get(path string, out any) error {
	status, body, err := hr.fetch(path)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s: %d %s", path, status, e.Error)
		}
		return fmt.Errorf("%s: %d", path, status)
	}

	wrapper := struct {
		Data any `json:"data"`
	}{Data: out}
	return json.Unmarshal(body, &wrapper)
}

func (hr *HttpReader) GetHello() (string, error) {
	_, body, err := hr.fetch(ROUTE_HELLO)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (hr *HttpReader) GetCustodian() (*CustodianView, error) {
	v := &CustodianView{}
	if err := hr.get(ROUTE_CUSTODIAN, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (hr *HttpReader) GetGateways() ([]*GatewayView, error) {
	var v []*GatewayView
	if err := hr.get(ROUTE_GATEWAYS, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (hr *HttpReader) GetGateway(chain uint16) (*GatewayView, error) {
	v := &GatewayView{}
	if err := hr.get(ROUTE_GATEWAYS+"/"+strconv.FormatUint(uint64(chain), 10), v); err != nil {
		return nil, err
	}
	return v, nil
}

func (hr *HttpReader) GetClaim(hash string) (*ClaimView, error) {
	v := &ClaimView{}
	if err := hr.get(ROUTE_CLAIMS+"/"+hash, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (hr *HttpReader) GetEvents(after int64, limit int) ([]*state.EventRecord, error) {
	var v []*state.EventRecord
	path := fmt.Sprintf("%s?after=%d&limit=%d", ROUTE_EVENTS, after, limit)
	if err := hr.get(path, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (hr *HttpReader) GetBalances(owner string) (*BalancesView, error) {
	v := &BalancesView{}
	if err := hr.get(ROUTE_ACCOUNTS+"/"+owner, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (hr *HttpReader) GetOutbound(after uint64, limit int) ([]*OutboundView, error) {
	var v []*OutboundView
	path := fmt.Sprintf("%s?after=%d&limit=%d", ROUTE_OUTBOUND, after, limit)
	if err := hr.get(path, &v); err != nil {
		return nil, err
	}
	return v, nil
}
