package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

var (
	probeClient *http.Client
	probeOnce   sync.Once
)

func getProbeClient() *http.Client {
	probeOnce.Do(func() {
		probeClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	})
	return probeClient
}

type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Jsonrpc string           `json:"jsonrpc"`
	Result  interface{}      `json:"result"`
	Error   *json.RawMessage `json:"error"`
	ID      int              `json:"id"`
}

// EndpointHealth is the probe result for one RPC endpoint
type EndpointHealth struct {
	URL     string        `json:"url"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// probeEndpoint issues a getHealth call and records latency
func probeEndpoint(ctx context.Context, url string, timeout time.Duration, ch chan<- EndpointHealth, wg *sync.WaitGroup) {
	defer wg.Done()

	start := time.Now()

	req := rpcRequest{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  "getHealth",
		Params:  []interface{}{},
	}
	body, _ := json.Marshal(req)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		ch <- EndpointHealth{URL: url, OK: false, Error: err.Error()}
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Transport: getProbeClient().Transport,
		Timeout:   timeout,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		ch <- EndpointHealth{URL: url, OK: false, Latency: time.Since(start), Error: err.Error()}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		ch <- EndpointHealth{URL: url, OK: false, Latency: time.Since(start), Error: fmt.Sprintf("status code: %d", resp.StatusCode)}
		return
	}

	var result rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		ch <- EndpointHealth{URL: url, OK: false, Latency: time.Since(start), Error: err.Error()}
		return
	}
	if result.Error != nil {
		ch <- EndpointHealth{URL: url, OK: false, Latency: time.Since(start), Error: fmt.Sprintf("rpc error: %s", string(*result.Error))}
		return
	}

	ch <- EndpointHealth{URL: url, OK: true, Latency: time.Since(start)}
}

// ProbeEndpoints health-checks all endpoints concurrently. Returns partial
// results if the context is cancelled first.
func ProbeEndpoints(ctx context.Context, endpoints []string, timeout time.Duration) []EndpointHealth {
	var wg sync.WaitGroup
	resultCh := make(chan EndpointHealth, len(endpoints))

	for _, url := range endpoints {
		wg.Add(1)
		go probeEndpoint(ctx, url, timeout, resultCh, &wg)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
	close(resultCh)

	var results []EndpointHealth
	for res := range resultCh {
		results = append(results, res)
	}
	return results
}

// SelectEndpoint probes the given endpoints and returns the healthy one with
// the lowest latency. Errors when none respond.
func SelectEndpoint(ctx context.Context, endpoints []string, timeout time.Duration) (string, error) {
	results := ProbeEndpoints(ctx, endpoints, timeout)

	var healthy []EndpointHealth
	for _, res := range results {
		if res.OK {
			healthy = append(healthy, res)
		}
	}
	if len(healthy) == 0 {
		return "", fmt.Errorf("no healthy RPC endpoint among %d candidates", len(endpoints))
	}

	sort.Slice(healthy, func(i, j int) bool { return healthy[i].Latency < healthy[j].Latency })
	return healthy[0].URL, nil
}
