// Package network projects verified collections into the graph database and
// reads back who collected from whom.
package network

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/graph"
)

// ErrDisabled is returned when no graph database is configured.
var ErrDisabled = errors.New("collection network is disabled")

// Collection is one verified pick-up to project.
type Collection struct {
	Report      domain.Report
	Reporter    domain.User
	Collector   domain.User
	CollectedAt time.Time
}

// Graph reads and writes the collection network.
type Graph struct {
	client graph.Client
}

// New wraps client. A nil client yields a Graph that reports ErrDisabled.
func New(client graph.Client) *Graph {
	return &Graph{client: client}
}

// Enabled reports whether a graph database backs g.
func (g *Graph) Enabled() bool {
	return g != nil && g.client != nil
}

// RecordCollection merges the reporter, collector and report nodes and the
// edges between them. It is idempotent per report.
func (g *Graph) RecordCollection(ctx context.Context, c Collection) error {
	if !g.Enabled() {
		return ErrDisabled
	}
	if c.Report.ID == "" || c.Reporter.ID == "" || c.Collector.ID == "" {
		return fmt.Errorf("report, reporter and collector IDs are required")
	}

	params := map[string]any{
		"reportId":      c.Report.ID,
		"category":      string(c.Report.Category),
		"itemType":      c.Report.ItemType,
		"location":      c.Report.Location,
		"reporterId":    c.Reporter.ID,
		"reporterName":  c.Reporter.Name,
		"collectorId":   c.Collector.ID,
		"collectorName": c.Collector.Name,
		"collectedAt":   c.CollectedAt.UTC(),
	}
	if _, err := g.client.Write(ctx, recordCollectionCypher, params); err != nil {
		return fmt.Errorf("record collection %s: %w", c.Report.ID, err)
	}
	return nil
}

// UserNetwork returns the peers of userID in both collection directions.
func (g *Graph) UserNetwork(ctx context.Context, userID string) (domain.UserNetwork, error) {
	if !g.Enabled() {
		return domain.UserNetwork{}, ErrDisabled
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.UserNetwork{}, fmt.Errorf("user ID is required")
	}

	params := map[string]any{"userId": userID}
	from, err := g.client.Read(ctx, collectedFromCypher, params)
	if err != nil {
		return domain.UserNetwork{}, fmt.Errorf("fetch collected-from peers: %w", err)
	}
	by, err := g.client.Read(ctx, collectedByCypher, params)
	if err != nil {
		return domain.UserNetwork{}, fmt.Errorf("fetch collected-by peers: %w", err)
	}

	return domain.UserNetwork{
		UserID:        userID,
		CollectedFrom: decodePeers(from),
		CollectedBy:   decodePeers(by),
	}, nil
}

// Ping checks graph connectivity.
func (g *Graph) Ping(ctx context.Context) error {
	if !g.Enabled() {
		return ErrDisabled
	}
	return g.client.VerifyConnectivity(ctx)
}

// Close releases the underlying driver.
func (g *Graph) Close(ctx context.Context) error {
	if !g.Enabled() {
		return nil
	}
	return g.client.Close(ctx)
}

func decodePeers(res graph.Result) []domain.NetworkPeer {
	peers := make([]domain.NetworkPeer, 0, len(res.Records))
	for _, rec := range res.Records {
		peers = append(peers, domain.NetworkPeer{
			UserID:          rec.String("userId"),
			Name:            rec.String("name"),
			Collections:     rec.Int("collections"),
			LastCollectedAt: rec.Time("lastCollectedAt"),
		})
	}
	return peers
}

const recordCollectionCypher = `
MERGE (reporter:User {id: $reporterId})
SET reporter.name = $reporterName
MERGE (collector:User {id: $collectorId})
SET collector.name = $collectorName
MERGE (report:Report {id: $reportId})
SET report.category = $category,
    report.itemType = $itemType,
    report.location = $location
MERGE (reporter)-[:REPORTED]->(report)
MERGE (collector)-[c:COLLECTED]->(report)
SET c.collectedAt = $collectedAt
`

const collectedFromCypher = `
MATCH (:User {id: $userId})-[c:COLLECTED]->(:Report)<-[:REPORTED]-(peer:User)
RETURN peer.id AS userId, coalesce(peer.name, '') AS name, count(*) AS collections,
       max(c.collectedAt) AS lastCollectedAt
ORDER BY collections DESC, userId
`

const collectedByCypher = `
MATCH (:User {id: $userId})-[:REPORTED]->(:Report)<-[c:COLLECTED]-(peer:User)
RETURN peer.id AS userId, coalesce(peer.name, '') AS name, count(*) AS collections,
       max(c.collectedAt) AS lastCollectedAt
ORDER BY collections DESC, userId
`
