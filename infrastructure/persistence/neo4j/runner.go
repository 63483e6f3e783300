package neo4j

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"templatehub/infrastructure/persistence/cypher"
)

// counters is the subset of a result summary the store reports on.
type counters struct {
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
	ConstraintsAdded     int
}

type queryResult struct {
	Records  []*neo4j.Record
	Counters counters
}

// runner executes one statement in its own managed transaction.
type runner interface {
	run(ctx context.Context, write bool, stmt cypher.Statement) (*queryResult, error)
}

// driverRunner opens a session per call and closes it before returning.
type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (r *driverRunner) run(ctx context.Context, write bool, stmt cypher.Statement) (*queryResult, error) {
	mode := neo4j.AccessModeRead
	if write {
		mode = neo4j.AccessModeWrite
	}
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: r.database,
		AccessMode:   mode,
	})
	defer session.Close(ctx)

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, stmt.Cypher, stmt.Params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		out := &queryResult{Records: records}
		if summary != nil && summary.Counters() != nil {
			c := summary.Counters()
			out.Counters = counters{
				NodesCreated:         c.NodesCreated(),
				NodesDeleted:         c.NodesDeleted(),
				RelationshipsCreated: c.RelationshipsCreated(),
				RelationshipsDeleted: c.RelationshipsDeleted(),
				PropertiesSet:        c.PropertiesSet(),
				ConstraintsAdded:     c.ConstraintsAdded(),
			}
		}
		return out, nil
	}

	var (
		result any
		err    error
	)
	if write {
		result, err = session.ExecuteWrite(ctx, work)
	} else {
		result, err = session.ExecuteRead(ctx, work)
	}
	if err != nil {
		return nil, err
	}
	return result.(*queryResult), nil
}
