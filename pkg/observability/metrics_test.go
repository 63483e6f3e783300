package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_ObserveStore(t *testing.T) {
	c := NewCollector("test")

	c.ObserveStore("mongodb", "create", time.Now(), nil)
	c.ObserveStore("mongodb", "create", time.Now(), errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("mongodb", "create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("mongodb", "create", "error")))
}

func TestCollector_RecordDrift(t *testing.T) {
	c := NewCollector("test")

	c.RecordDrift("project", "orphan_mirror")
	c.RecordDrift("project", "orphan_mirror")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Drift.WithLabelValues("project", "orphan_mirror")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveStore("neo4j", "read", time.Now(), nil)
		c.ObserveMirror("template", "create", false)
		c.RecordDrift("template", "missing_mirror")
	})
}
