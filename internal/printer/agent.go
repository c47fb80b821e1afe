package printer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/canline/labelstation/internal/types"
)

// DefaultAgentURL is where the Zebra Browser Print agent listens locally.
const DefaultAgentURL = "http://127.0.0.1:9100"

// AgentGateway talks to the Zebra Browser Print agent over its local HTTP
// API: GET /default?type=printer enumerates the bound device, POST /write
// dispatches a payload to it.
type AgentGateway struct {
	baseURL string
	client  *http.Client
}

// NewAgentGateway returns a gateway for the agent at baseURL.
// An empty baseURL selects the agent's default local address.
func NewAgentGateway(baseURL string) *AgentGateway {
	if baseURL == "" {
		baseURL = DefaultAgentURL
	}
	return &AgentGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// agentDeviceInfo is the agent's JSON description of a bound device.
type agentDeviceInfo struct {
	Name         string `json:"name"`
	UID          string `json:"uid"`
	Connection   string `json:"connection"`
	DeviceType   string `json:"deviceType"`
	Manufacturer string `json:"manufacturer"`
}

// Probe implements Gateway. An unreachable agent is StatusUnavailable: the
// capability is configured, the agent just is not running yet.
func (g *AgentGateway) Probe(ctx context.Context) Status {
	if _, err := g.defaultDeviceInfo(ctx); err != nil {
		return StatusUnavailable
	}
	return StatusReady
}

// DefaultDevice implements Gateway.
func (g *AgentGateway) DefaultDevice(ctx context.Context) (Device, error) {
	info, err := g.defaultDeviceInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &agentDevice{gateway: g, info: info}, nil
}

func (g *AgentGateway) defaultDeviceInfo(ctx context.Context) (*agentDeviceInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/default?type=printer", nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent returned %s: %w", resp.Status, types.ErrNoDevice)
	}

	var info agentDeviceInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode agent response: %w", err)
	}
	if info.UID == "" && info.Name == "" {
		return nil, types.ErrNoDevice
	}
	return &info, nil
}

// agentDevice dispatches payloads through the agent's /write endpoint.
type agentDevice struct {
	gateway *AgentGateway
	info    *agentDeviceInfo
}

func (d *agentDevice) Name() string {
	if d.info.Name != "" {
		return d.info.Name
	}
	return d.info.UID
}

// Send implements Device. The agent acknowledges hand-off with 200; the
// physical print outcome is not observable through this API.
func (d *agentDevice) Send(ctx context.Context, payload []byte) error {
	body, err := json.Marshal(map[string]any{
		"device": d.info,
		"data":   string(payload),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.gateway.baseURL+"/write", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.gateway.client.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch to %s: %w", d.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dispatch to %s: agent returned %s", d.Name(), resp.Status)
	}
	return nil
}
