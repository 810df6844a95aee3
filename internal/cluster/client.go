package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"gossip_scan/internal/dataType"
	"gossip_scan/internal/utils"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Client fetches the cluster's gossip view over JSON-RPC.
type Client struct {
	rpcURL string
	http   *http.Client
	skip   *dataType.SkipList
}

func NewClient(rpcURL string, timeout time.Duration, skip *dataType.SkipList) *Client {
	return &Client{
		rpcURL: rpcURL,
		http:   &http.Client{Timeout: timeout},
		skip:   skip,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type clusterNode struct {
	PubKey  string `json:"pubkey"`
	Gossip  string `json:"gossip"`
	Version string `json:"version"`
}

type rpcResponse struct {
	Result []clusterNode `json:"result"`
	Error  *rpcError     `json:"error"`
}

// ListNodes issues one getClusterNodes call and returns every reported
// node that advertises a usable gossip IP. Any transport or decode
// failure is fatal for the run: there is no partial node list.
func (c *Client) ListNodes(ctx context.Context) ([]dataType.Node, error) {
	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: "getClusterNodes"})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cluster node fetch failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			utils.LogError("cluster", "failed to close RPC response body: "+err.Error())
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cluster node fetch failed: rpc endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("cluster node fetch failed: %w", err)
	}

	var parsed rpcResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("cluster node fetch failed: malformed response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("cluster node fetch failed: rpc error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if parsed.Result == nil {
		return nil, fmt.Errorf("cluster node fetch failed: response has no result")
	}

	return c.extractNodes(parsed.Result), nil
}

// extractNodes filters the raw gossip view down to scannable nodes:
// gossip address present and parseable, IP outside the skip ranges,
// and the pubkey/IP pair not seen before in this response.
func (c *Client) extractNodes(raw []clusterNode) []dataType.Node {
	nodes := make([]dataType.Node, 0, len(raw))
	seen := make(map[uint64]struct{}, len(raw))

	for _, n := range raw {
		if n.Gossip == "" {
			continue
		}
		host := gossipHost(n.Gossip)
		ip := net.ParseIP(host)
		if ip == nil {
			utils.LogDebug("cluster", "skipping node "+n.PubKey+" with unparseable gossip address "+n.Gossip)
			continue
		}
		if c.skip != nil && c.skip.Contains(ip) {
			utils.LogDebug("cluster", "skipping node "+n.PubKey+" in excluded range: "+host)
			continue
		}

		key := xxhash.Sum64String(n.PubKey + "|" + host)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		nodes = append(nodes, dataType.Node{
			PubKey:   n.PubKey,
			GossipIP: host,
			Version:  n.Version,
		})
	}

	return nodes
}

// gossipHost strips the port from "IP:PORT" or "[IPv6]:PORT" forms.
// A bare address comes back unchanged.
func gossipHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}
