package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matsen/scholargraph/internal/analysis"
)

const (
	// StreamTimeout bounds a whole conceptual-edge stream. The backend runs a
	// language model per candidate pair, so streams outlive plain calls.
	StreamTimeout = 5 * time.Minute

	// DefaultStreamBatch is the number of edges delivered per callback.
	DefaultStreamBatch = 10
)

// StreamResult summarizes a finished conceptual-edge stream.
type StreamResult struct {
	Delivered   int                 `json:"delivered"`
	TotalEdges  int                 `json:"total_edges"` // As reported by the complete event
	Quarantined analysis.Quarantine `json:"quarantined"`
	Completed   bool                `json:"completed"`
}

// BatchFunc receives conceptual edges as they arrive. Returning an error
// stops the stream.
type BatchFunc func(batch []analysis.ConceptualEdge) error

// ProgressFunc receives progress messages. It may be nil.
type ProgressFunc func(stage, message string)

type streamEvent struct {
	Type       string `json:"type"`
	Stage      string `json:"stage"`
	Message    string `json:"message"`
	TotalEdges int    `json:"total_edges"`
}

// StreamConceptualEdges opens the conceptual-edge event stream for a set of
// papers and delivers validated edges to onBatch in batches.
func (c *Client) StreamConceptualEdges(ctx context.Context, paperIDs []string, batchSize int, onBatch BatchFunc, onProgress ProgressFunc) (StreamResult, error) {
	var res StreamResult
	if len(paperIDs) < 2 {
		return res, fmt.Errorf("conceptual analysis needs at least 2 papers, got %d", len(paperIDs))
	}
	if batchSize <= 0 {
		batchSize = DefaultStreamBatch
	}

	path := "/api/analysis/conceptual-edges/stream?paper_ids=" + url.QueryEscape(strings.Join(paperIDs, ","))
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return res, err
	}
	req.Header.Set("Accept", "text/event-stream")

	sc := *c.httpClient
	sc.Timeout = StreamTimeout
	resp, err := c.sendWith(&sc, req)
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()

	buf := &edgeBuffer{size: batchSize, onBatch: onBatch, res: &res}
	err = parseSSEStream(resp.Body, func(data []byte, index int) (bool, error) {
		var ev streamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			res.Quarantined.Rejected = append(res.Quarantined.Rejected, analysis.Rejected{
				Kind: "stream_event", Index: index, Reason: err.Error(),
			})
			return false, nil
		}

		switch ev.Type {
		case "edge":
			ce, err := analysis.ParseConceptualEdge(data)
			if err != nil {
				res.Quarantined.Rejected = append(res.Quarantined.Rejected, analysis.Rejected{
					Kind: "conceptual_edge", Index: index, Reason: err.Error(),
				})
				return false, nil
			}
			return false, buf.add(ce)
		case "progress":
			if onProgress != nil {
				onProgress(ev.Stage, ev.Message)
			}
		case "complete":
			res.TotalEdges = ev.TotalEdges
			res.Completed = true
			return true, nil
		case "error":
			return true, fmt.Errorf("%w: %s", ErrStream, ev.Message)
		}
		return false, nil
	})

	// Deliver whatever is buffered even when the stream failed part way.
	if flushErr := buf.flush(); err == nil {
		err = flushErr
	}
	c.logQuarantine("conceptual_edges", res.Quarantined)
	return res, err
}

// edgeBuffer groups validated edges into batches for the callback.
type edgeBuffer struct {
	size    int
	pending []analysis.ConceptualEdge
	onBatch BatchFunc
	res     *StreamResult
}

func (b *edgeBuffer) add(ce analysis.ConceptualEdge) error {
	b.pending = append(b.pending, ce)
	if len(b.pending) < b.size {
		return nil
	}
	return b.flush()
}

func (b *edgeBuffer) flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	batch := b.pending
	b.pending = nil
	b.res.Delivered += len(batch)
	if b.onBatch == nil {
		return nil
	}
	return b.onBatch(batch)
}

// parseSSEStream calls handle with the payload of each data line until the
// stream ends or handle reports it is done.
func parseSSEStream(body io.Reader, handle func(data []byte, index int) (done bool, err error)) error {
	scanner := bufio.NewScanner(body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	index := 0
	for scanner.Scan() {
		line := scanner.Text()

		// Skip comments such as pings, blank separators and event type lines.
		if line == "" || strings.HasPrefix(line, ":") || strings.HasPrefix(line, "event:") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}

		done, err := handle([]byte(strings.TrimSpace(data)), index)
		index++
		if err != nil || done {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: reading event stream: %v", ErrNetworkError, err)
	}
	return nil
}
