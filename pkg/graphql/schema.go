package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/shouc/distfuzz/pkg/cluster"
)

// workerStatus is the resolved shape of one worker row. Rank 0 (the
// coordinator itself) never appears here; it owns no partition.
type workerStatus struct {
	Rank      int
	LastSeen  int64 // unix seconds, 0 if never seen
	EdgeCount int
	Weight    uint64
}

// GenerateSchema builds the read-only cluster status schema: graph size,
// the coordinator's current tree-balanced partition plan across
// worldSize-1 workers, and each worker's last upload time.
func GenerateSchema(c *cluster.Coordinator, worldSize int) (graphql.Schema, error) {
	workerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Worker",
		Fields: graphql.Fields{
			"rank": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if w, ok := p.Source.(workerStatus); ok {
						return w.Rank, nil
					}
					return nil, nil
				},
			},
			"lastSeenUnix": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if w, ok := p.Source.(workerStatus); ok {
						return int(w.LastSeen), nil
					}
					return nil, nil
				},
			},
			"edgeCount": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if w, ok := p.Source.(workerStatus); ok {
						return w.EdgeCount, nil
					}
					return nil, nil
				},
			},
			"weight": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if w, ok := p.Source.(workerStatus); ok {
						return float64(w.Weight), nil
					}
					return nil, nil
				},
			},
		},
	})

	graphType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GraphStats",
		Fields: graphql.Fields{
			"nodeCount": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return c.Master().NodeCount(), nil
				},
			},
		},
	})

	queryFields := graphql.Fields{
		"health": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return "ok", nil
			},
		},
		"runId": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return c.RunID().String(), nil
			},
		},
		"graph": &graphql.Field{
			Type: graphType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return struct{}{}, nil
			},
		},
		"workers": &graphql.Field{
			Type:    graphql.NewList(workerType),
			Resolve: workersResolver(c, worldSize),
		},
		"worker": &graphql.Field{
			Type: workerType,
			Args: graphql.FieldConfigArgument{
				"rank": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.Int),
				},
			},
			Resolve: workerResolver(c, worldSize),
		},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: queryFields,
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("graphql: build schema: %w", err)
	}
	return schema, nil
}

// workerStatuses joins the coordinator's last partition plan against its
// last-seen table, by loop index plus one (plan index i belongs to
// worker rank i+1, following the fixed rank assignment of spec.md §4).
func workerStatuses(c *cluster.Coordinator, worldSize int) ([]workerStatus, error) {
	plans, err := c.Partitions(worldSize)
	if err != nil {
		return nil, err
	}
	seen := c.WorkerSeen()

	out := make([]workerStatus, 0, len(plans))
	for i, plan := range plans {
		rank := i + 1
		var lastSeen int64
		if t, ok := seen[rank]; ok {
			lastSeen = t.Unix()
		}
		out = append(out, workerStatus{
			Rank:      rank,
			LastSeen:  lastSeen,
			EdgeCount: len(plan.Plan),
			Weight:    plan.Weight,
		})
	}
	return out, nil
}

func workersResolver(c *cluster.Coordinator, worldSize int) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		return workerStatuses(c, worldSize)
	}
}

func workerResolver(c *cluster.Coordinator, worldSize int) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		rank, ok := p.Args["rank"].(int)
		if !ok {
			return nil, fmt.Errorf("rank argument is required")
		}
		statuses, err := workerStatuses(c, worldSize)
		if err != nil {
			return nil, err
		}
		for _, w := range statuses {
			if w.Rank == rank {
				return w, nil
			}
		}
		return nil, nil
	}
}
