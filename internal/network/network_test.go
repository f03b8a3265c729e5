package network

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/graph"
)

func TestRecordCollectionWritesMerge(t *testing.T) {
	client := graph.NewMemoryClient()
	g := New(client)

	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	err := g.RecordCollection(context.Background(), Collection{
		Report:      domain.Report{ID: "r1", Category: domain.CategoryClothes, ItemType: "cotton", Location: "Nairobi"},
		Reporter:    domain.User{ID: "u1", Name: "Alice"},
		Collector:   domain.User{ID: "u2", Name: "Bob"},
		CollectedAt: at,
	})
	if err != nil {
		t.Fatalf("record collection: %v", err)
	}

	writes := client.Writes()
	if len(writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(writes))
	}
	q := writes[0]
	if !strings.Contains(q.Cypher, "MERGE (collector)-[c:COLLECTED]->(report)") {
		t.Fatalf("unexpected cypher: %s", q.Cypher)
	}
	if q.Params["reporterId"] != "u1" || q.Params["collectorId"] != "u2" || q.Params["reportId"] != "r1" {
		t.Fatalf("unexpected params: %+v", q.Params)
	}
	// Stored as a DateTime, not text.
	if got, ok := q.Params["collectedAt"].(time.Time); !ok || !got.Equal(at) {
		t.Fatalf("unexpected timestamp param: %#v", q.Params["collectedAt"])
	}
}

func TestRecordCollectionRequiresIDs(t *testing.T) {
	client := graph.NewMemoryClient()
	if err := New(client).RecordCollection(context.Background(), Collection{}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(client.Queries()) != 0 {
		t.Fatal("no query should run for an invalid collection")
	}
}

func TestUserNetworkDecodesBothDirections(t *testing.T) {
	client := graph.NewMemoryClient()
	client.Queue(graph.Result{Records: []graph.Record{
		{"userId": "u1", "name": "Alice", "collections": int64(3), "lastCollectedAt": time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
	}})
	client.Queue(graph.Result{Records: []graph.Record{
		{"userId": "u3", "name": "Carol", "collections": int64(1)},
		{"userId": "u4", "name": nil, "collections": int64(1)},
	}})

	got, err := New(client).UserNetwork(context.Background(), " u2 ")
	if err != nil {
		t.Fatalf("user network: %v", err)
	}
	alice := domain.NetworkPeer{
		UserID:          "u1",
		Name:            "Alice",
		Collections:     3,
		LastCollectedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	collectors := []domain.NetworkPeer{
		{UserID: "u3", Name: "Carol", Collections: 1},
		{UserID: "u4", Collections: 1},
	}
	want := domain.UserNetwork{
		UserID:        "u2",
		CollectedFrom: []domain.NetworkPeer{alice},
		CollectedBy:   collectors,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected network (-want +got):\n%s", diff)
	}
	for _, q := range client.Queries() {
		if q.Write {
			t.Fatal("network lookup must only read")
		}
		if q.Params["userId"] != "u2" {
			t.Fatalf("unexpected userId param %v", q.Params["userId"])
		}
	}
}

func TestUserNetworkPropagatesErrors(t *testing.T) {
	boom := errors.New("bolt down")
	client := graph.NewMemoryClient().RespondWith(func(graph.Query) (graph.Result, error) {
		return graph.Result{}, boom
	})
	if _, err := New(client).UserNetwork(context.Background(), "u1"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestDisabledGraph(t *testing.T) {
	g := New(nil)
	if g.Enabled() {
		t.Fatal("nil client should disable the graph")
	}
	if err := g.RecordCollection(context.Background(), Collection{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if _, err := g.UserNetwork(context.Background(), "u1"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if err := g.Close(context.Background()); err != nil {
		t.Fatalf("close on disabled graph: %v", err)
	}
}
