package analysis

import (
	"errors"
	"testing"
	"time"
)

func TestParseTrendAnalysis(t *testing.T) {
	payload := []byte(`{
		"emerging": [
			{"cluster_id": 0, "cluster_label": "Phylogenetics", "classification": "emerging",
			 "paper_count": 12, "year_range": [2015, 2024],
			 "year_distribution": {"2020": 2, "2023": 7}, "trend_strength": 0.8, "velocity": 1.5}
		],
		"stable": [
			{"cluster_id": 1, "classification": "declining", "paper_count": 3},
			{"cluster_id": 2, "paper_count": 4, "year_distribution": {"recent": 1}}
		],
		"declining": [
			{"cluster_label": "no id"},
			{"cluster_id": 3, "paper_count": 5}
		],
		"summary": {"total_clusters": 4}
	}`)

	ta, q, err := ParseTrendAnalysis(payload)
	if err != nil {
		t.Fatalf("ParseTrendAnalysis() error = %v", err)
	}

	if len(ta.Emerging) != 1 || len(ta.Stable) != 0 || len(ta.Declining) != 1 {
		t.Fatalf("buckets = %d/%d/%d, want 1/0/1", len(ta.Emerging), len(ta.Stable), len(ta.Declining))
	}
	if q.Len() != 3 {
		t.Errorf("quarantined %d records, want 3: %+v", q.Len(), q.Rejected)
	}

	em := ta.Emerging[0]
	if em.YearDistribution[2023] != 7 {
		t.Errorf("YearDistribution[2023] = %d, want 7", em.YearDistribution[2023])
	}
	if em.YearRange != [2]int{2015, 2024} {
		t.Errorf("YearRange = %v, want [2015 2024]", em.YearRange)
	}
	if ta.Declining[0].Classification != Declining {
		t.Errorf("missing classification should default to bucket, got %q", ta.Declining[0].Classification)
	}
	if _, ok := ta.ForCluster(3); !ok {
		t.Error("ForCluster(3) not found")
	}
}

func TestParseTrendAnalysis_Malformed(t *testing.T) {
	_, _, err := ParseTrendAnalysis([]byte(`["not", "an", "object"]`))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

func TestParseGapAnalysis(t *testing.T) {
	payload := []byte(`{
		"gaps": [
			{"gap_id": "gap-0-1", "cluster_a": {"id": 0, "label": "A"}, "cluster_b": {"id": "1", "label": "B"},
			 "gap_strength": 0.7,
			 "bridge_papers": [{"paper_id": "p3", "score": 0.4}, {"title": "no id"}],
			 "potential_edges": [{"source": "p1", "target": "p3", "similarity": 0.6}]},
			{"gap_id": "gap-bad-strength", "cluster_a": {"id": 0}, "cluster_b": {"id": 2}, "gap_strength": 1.4},
			{"gap_id": "gap-no-cluster", "cluster_a": {"id": 0}, "gap_strength": 0.2},
			{"cluster_a": {"id": 0}, "cluster_b": {"id": 1}, "gap_strength": 0.2}
		],
		"cluster_connectivity_matrix": {"0-1": 1}
	}`)

	ga, q, err := ParseGapAnalysis(payload)
	if err != nil {
		t.Fatalf("ParseGapAnalysis() error = %v", err)
	}
	if len(ga.Gaps) != 1 {
		t.Fatalf("gaps = %d, want 1", len(ga.Gaps))
	}
	if q.Len() != 3 {
		t.Errorf("quarantined %d, want 3: %+v", q.Len(), q.Rejected)
	}

	gap := ga.Gaps[0]
	if gap.ClusterB.ID != 1 {
		t.Errorf("string cluster id parsed as %d, want 1", gap.ClusterB.ID)
	}
	if ids := gap.BridgePaperIDs(); len(ids) != 1 || ids[0] != "p3" {
		t.Errorf("BridgePaperIDs() = %v, want [p3]", ids)
	}
	if _, ok := ga.FindGap("gap-0-1"); !ok {
		t.Error("FindGap(gap-0-1) not found")
	}
}

func TestParseConceptualEdge(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantColor string
	}{
		{
			name:      "known relation fills color",
			input:     `{"source": "p1", "target": "p2", "relation_type": "theory_shared", "weight": 0.5}`,
			wantColor: "#4A90D9",
		},
		{
			name:      "explicit color kept",
			input:     `{"source": "p1", "target": "p2", "relation_type": "theory_shared", "weight": 0.5, "color": "#000000"}`,
			wantColor: "#000000",
		},
		{
			name:      "unknown relation gets fallback color",
			input:     `{"source": "p1", "target": "p2", "relation_type": "novel", "weight": 0.5}`,
			wantColor: "#95A5A6",
		},
		{
			name:    "missing target",
			input:   `{"source": "p1", "relation_type": "theory_shared", "weight": 0.5}`,
			wantErr: true,
		},
		{
			name:    "weight out of range",
			input:   `{"source": "p1", "target": "p2", "relation_type": "theory_shared", "weight": 2}`,
			wantErr: true,
		},
		{
			name:    "missing relation",
			input:   `{"source": "p1", "target": "p2", "weight": 0.5}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce, err := ParseConceptualEdge([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConceptualEdge() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && ce.Color != tt.wantColor {
				t.Errorf("Color = %q, want %q", ce.Color, tt.wantColor)
			}
		})
	}
}

func TestParseCitationIntents(t *testing.T) {
	payload := []byte(`[
		{"citing_id": "p2", "cited_id": "p1", "intent": "methodology", "is_influential": true, "confidence": 0.9},
		{"citing_id": "p3", "intent": "background"},
		{"citing_id": "p4", "cited_id": "p1"},
		42
	]`)

	intents, q, err := ParseCitationIntents(payload)
	if err != nil {
		t.Fatalf("ParseCitationIntents() error = %v", err)
	}
	if len(intents) != 1 {
		t.Fatalf("intents = %d, want 1", len(intents))
	}
	if intents[0].Confidence == nil || *intents[0].Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", intents[0].Confidence)
	}
	if q.Len() != 3 {
		t.Errorf("quarantined %d, want 3", q.Len())
	}
}

func TestParseWatchQuery(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantErr     bool
		wantNotify  bool
		wantChecked bool
		wantCreated time.Time
	}{
		{
			name:        "naive iso timestamps",
			input:       `{"id": "w1", "query": "bcr repertoire", "created_at": "2024-03-01T10:00:00.123456"}`,
			wantNotify:  true,
			wantCreated: time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC),
		},
		{
			name:        "rfc3339 with last_checked",
			input:       `{"id": "w2", "query": "q", "notify_email": false, "created_at": "2024-03-01T10:00:00Z", "last_checked": "2024-03-02T00:00:00+00:00"}`,
			wantChecked: true,
			wantCreated: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{name: "blank query", input: `{"id": "w3", "query": "  "}`, wantErr: true},
		{name: "missing id", input: `{"query": "q"}`, wantErr: true},
		{name: "bad timestamp", input: `{"id": "w4", "query": "q", "created_at": "yesterday"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wq, err := ParseWatchQuery([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWatchQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if wq.NotifyEmail != tt.wantNotify {
				t.Errorf("NotifyEmail = %v, want %v", wq.NotifyEmail, tt.wantNotify)
			}
			if (wq.LastChecked != nil) != tt.wantChecked {
				t.Errorf("LastChecked = %v, want set=%v", wq.LastChecked, tt.wantChecked)
			}
			if !wq.CreatedAt.Equal(tt.wantCreated) {
				t.Errorf("CreatedAt = %v, want %v", wq.CreatedAt, tt.wantCreated)
			}
		})
	}
}

func TestParseWatchQueries(t *testing.T) {
	got, q, err := ParseWatchQueries([]byte(`[{"id": "w1", "query": "a"}, {"id": "w2"}]`))
	if err != nil {
		t.Fatalf("ParseWatchQueries() error = %v", err)
	}
	if len(got) != 1 || q.Len() != 1 {
		t.Errorf("got %d queries, %d rejected; want 1, 1", len(got), q.Len())
	}

	if _, _, err := ParseWatchQueries([]byte(`{}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("object payload error = %v, want ErrMalformed", err)
	}
}
