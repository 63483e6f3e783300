package services

import (
	"context"
	"reflect"
	"sort"
	"time"

	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/domain/core/valueobjects"
	"templatehub/domain/events"
	"templatehub/infrastructure/persistence/cypher"
	pkgerrors "templatehub/pkg/errors"
	"templatehub/pkg/observability"
	"templatehub/pkg/utils"
)

// MirrorSpec describes an entity whose record in the document store is
// mirrored by a node in the graph store.
type MirrorSpec struct {
	Entity     string
	Collection string
	Label      string
	// IDProperty is the node property holding the record identifier.
	IDProperty string
}

func (s MirrorSpec) node(id string) ports.NodeSpec {
	return ports.Node(s.Label, ports.Properties{s.IDProperty: id})
}

// DriftKind classifies a disagreement between a record and its mirror.
type DriftKind string

const (
	DriftMissingMirror DriftKind = "missing_mirror"
	DriftMismatchedID  DriftKind = "mismatched_id"
	DriftStaleMirror   DriftKind = "stale_mirror"
	DriftOrphanMirror  DriftKind = "orphan_mirror"
	DriftUnverified    DriftKind = "unverified"
)

// DriftReport is surfaced, never raised. The operation that detected it
// still succeeds.
type DriftReport struct {
	ID         string    `json:"id"`
	Entity     string    `json:"entity"`
	RecordID   string    `json:"record_id"`
	Kind       DriftKind `json:"kind"`
	Detail     string    `json:"detail,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
	Cause      error     `json:"-"`
}

// Err renders the report as an error for logging.
func (r *DriftReport) Err() error {
	return pkgerrors.NewDriftError(r.Entity, r.RecordID, string(r.Kind), r.Cause)
}

// MirrorResult is the outcome of a mirrored write.
type MirrorResult struct {
	ID       string           `json:"id"`
	Affected int64            `json:"affected"`
	Mirror   ports.Properties `json:"-"`
	Drift    *DriftReport     `json:"drift,omitempty"`
}

// Mirrored reports whether the graph store reflects the write.
func (r *MirrorResult) Mirrored() bool { return r.Drift == nil }

// Mirror coordinates writes to a record and its graph mirror. The document
// store is authoritative: graph failures never roll back or fail the
// document write, they produce a drift report instead.
type Mirror struct {
	docs      ports.DocumentStore
	graph     ports.GraphStore
	publisher ports.EventPublisher
	metrics   *observability.Collector
	logger    *zap.Logger
	now       utils.Clock
}

// NewMirror creates a coordinator. metrics may be nil.
func NewMirror(
	docs ports.DocumentStore,
	graph ports.GraphStore,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Mirror {
	return &Mirror{
		docs:      docs,
		graph:     graph,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("mirror"),
		now:       utils.NowUTC,
	}
}

// Create writes doc, then a mirror node carrying the new identifier.
func (m *Mirror) Create(ctx context.Context, spec MirrorSpec, doc ports.Document) (*MirrorResult, error) {
	id, err := m.docs.Create(ctx, spec.Collection, doc)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to create %s", spec.Entity)
	}
	result := &MirrorResult{ID: id, Affected: 1}

	props, err := MirrorProperties(doc, spec.IDProperty, id)
	if err != nil {
		result.Drift = m.drift(ctx, spec, id, DriftMissingMirror, "record has no graph-safe form", err)
		m.metrics.ObserveMirror(spec.Entity, "create", false)
		return result, nil
	}

	node, err := m.graph.CreateNode(ctx, ports.Node(spec.Label, props))
	switch {
	case err != nil:
		result.Drift = m.drift(ctx, spec, id, DriftMissingMirror, "mirror node was not created", err)
	case node == nil || node[spec.IDProperty] != id:
		result.Drift = m.drift(ctx, spec, id, DriftMismatchedID, "mirror node does not carry the record id", nil)
	default:
		result.Mirror = node
		m.publish(ctx, events.NewEntityMirrored(spec.Entity, spec.Label, id, m.now()))
	}

	m.metrics.ObserveMirror(spec.Entity, "create", result.Mirrored())
	return result, nil
}

// Update applies update to the record, then copies the resulting values of
// the touched fields onto the mirror node.
func (m *Mirror) Update(ctx context.Context, spec MirrorSpec, id string, update ports.Update) (*MirrorResult, error) {
	filter := ports.Document{ports.IDField: id}
	modified, err := m.docs.Update(ctx, spec.Collection, filter, update)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to update %s", spec.Entity)
	}
	result := &MirrorResult{ID: id, Affected: modified}
	if modified == 0 {
		return result, nil
	}

	fields := make([]string, 0, len(update.Fields))
	for k := range update.Fields {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	doc, err := m.docs.Read(ctx, spec.Collection, filter, ports.ReadOptions{Projection: fields})
	if err != nil || doc == nil {
		result.Drift = m.drift(ctx, spec, id, DriftStaleMirror, "updated record could not be re-read", err)
		m.metrics.ObserveMirror(spec.Entity, "update", false)
		return result, nil
	}

	set := ports.Properties{}
	for _, f := range fields {
		v, ok := doc[f]
		if !ok {
			set[f] = nil
			continue
		}
		if gv, safe := graphValue(v); safe {
			set[f] = gv
		}
	}

	if len(set) > 0 {
		nodes, err := m.graph.UpdateNodes(ctx, spec.node(id), set)
		switch {
		case err != nil:
			result.Drift = m.drift(ctx, spec, id, DriftStaleMirror, "mirror node was not updated", err)
		case len(nodes) == 0:
			result.Drift = m.drift(ctx, spec, id, DriftMissingMirror, "no mirror node to update", nil)
		default:
			result.Mirror = nodes[0]
		}
	}

	if result.Mirrored() {
		m.publish(ctx, events.NewEntityUpdated(spec.Entity, id, fields, m.now()))
	}
	m.metrics.ObserveMirror(spec.Entity, "update", result.Mirrored())
	return result, nil
}

// Delete removes the record, then its mirror, then reads the graph again to
// confirm the mirror is gone.
func (m *Mirror) Delete(ctx context.Context, spec MirrorSpec, id string) (*MirrorResult, error) {
	deleted, err := m.docs.Delete(ctx, spec.Collection, ports.Document{ports.IDField: id}, false)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to delete %s", spec.Entity)
	}
	result := &MirrorResult{ID: id, Affected: deleted}

	_, delErr := m.graph.DeleteNode(ctx, spec.node(id))
	if delErr != nil {
		m.logger.Warn("Mirror delete failed, verifying",
			zap.String("entity", spec.Entity),
			zap.String("id", id),
			zap.Error(delErr),
		)
	}

	remaining, verifyErr := m.graph.ReadNode(ctx, ports.NodeQuery{NodeSpec: spec.node(id)})
	switch {
	case verifyErr != nil:
		cause := verifyErr
		if delErr != nil {
			cause = delErr
		}
		result.Drift = m.drift(ctx, spec, id, DriftUnverified, "mirror removal could not be verified", cause)
	case remaining != nil:
		result.Drift = m.drift(ctx, spec, id, DriftOrphanMirror, "mirror node still present after delete", delErr)
	}

	m.publish(ctx, events.NewEntityDeleted(spec.Entity, id, result.Mirrored(), m.now()))
	m.metrics.ObserveMirror(spec.Entity, "delete", result.Mirrored())
	return result, nil
}

// Verify compares one record with its mirror. It returns nil when they
// agree or when neither exists.
func (m *Mirror) Verify(ctx context.Context, spec MirrorSpec, id string) (*DriftReport, error) {
	doc, err := m.docs.Read(ctx, spec.Collection, ports.Document{ports.IDField: id}, ports.ReadOptions{})
	if err != nil {
		return nil, err
	}
	node, err := m.graph.ReadNode(ctx, ports.NodeQuery{NodeSpec: spec.node(id)})
	if err != nil {
		return nil, err
	}
	return m.compare(spec, id, doc, node), nil
}

// Scan verifies every record of spec and every mirror node of its label,
// reading records in pages of pageSize.
func (m *Mirror) Scan(ctx context.Context, spec MirrorSpec, pageSize int64) ([]DriftReport, error) {
	if pageSize <= 0 {
		pageSize = ports.DefaultReadLimit
	}

	nodes, err := m.graph.ReadNodes(ctx, ports.NodeQuery{NodeSpec: ports.Node(spec.Label, nil)})
	if err != nil {
		return nil, err
	}
	mirrors := make(map[string]ports.Properties, len(nodes))
	for _, n := range nodes {
		if id, ok := n[spec.IDProperty].(string); ok {
			mirrors[id] = n
		}
	}

	var reports []DriftReport
	opts := ports.ReadOptions{Sort: []ports.SortField{{Field: ports.IDField}}, Limit: pageSize}
	for {
		docs, err := m.docs.ReadMany(ctx, spec.Collection, ports.Document{}, opts)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			id, _ := doc[ports.IDField].(string)
			if r := m.compare(spec, id, doc, mirrors[id]); r != nil {
				reports = append(reports, *r)
			}
			delete(mirrors, id)
		}
		if int64(len(docs)) < pageSize {
			break
		}
		opts.Skip += pageSize
	}

	orphans := make([]string, 0, len(mirrors))
	for id := range mirrors {
		orphans = append(orphans, id)
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		reports = append(reports, *m.report(spec, id, DriftOrphanMirror, "mirror node has no record", nil))
	}

	for i := range reports {
		m.metrics.RecordDrift(spec.Entity, string(reports[i].Kind))
	}
	return reports, nil
}

// Reconcile repairs one drift report by rewriting the graph from the
// record. It returns the action taken.
func (m *Mirror) Reconcile(ctx context.Context, spec MirrorSpec, report DriftReport) (string, error) {
	if report.Kind == DriftUnverified {
		current, err := m.Verify(ctx, spec, report.RecordID)
		if err != nil {
			return "", err
		}
		if current == nil {
			return "none", nil
		}
		report = *current
	}

	var action string
	switch report.Kind {
	case DriftOrphanMirror:
		if _, err := m.graph.DeleteNode(ctx, spec.node(report.RecordID)); err != nil {
			return "", err
		}
		action = "deleted_mirror"

	case DriftMissingMirror, DriftMismatchedID, DriftStaleMirror:
		doc, err := m.docs.Read(ctx, spec.Collection, ports.Document{ports.IDField: report.RecordID}, ports.ReadOptions{})
		if err != nil {
			return "", err
		}
		if doc == nil {
			return "", pkgerrors.NewNotFoundError(spec.Entity)
		}
		props, err := MirrorProperties(doc, spec.IDProperty, report.RecordID)
		if err != nil {
			return "", err
		}
		nodes, err := m.graph.UpdateNodes(ctx, spec.node(report.RecordID), props)
		if err != nil {
			return "", err
		}
		action = "updated_mirror"
		if len(nodes) == 0 {
			if _, err := m.graph.CreateNode(ctx, ports.Node(spec.Label, props)); err != nil {
				return "", err
			}
			action = "created_mirror"
		}

	default:
		return "", pkgerrors.NewInvalidArgumentError("unknown drift kind %q", report.Kind)
	}

	m.logger.Info("Drift repaired",
		zap.String("entity", spec.Entity),
		zap.String("id", report.RecordID),
		zap.String("kind", string(report.Kind)),
		zap.String("action", action),
	)
	m.publish(ctx, events.NewDriftRepaired(spec.Entity, report.RecordID, action, m.now()))
	return action, nil
}

func (m *Mirror) compare(spec MirrorSpec, id string, doc ports.Document, node ports.Properties) *DriftReport {
	switch {
	case doc == nil && node == nil:
		return nil
	case doc == nil:
		return m.report(spec, id, DriftOrphanMirror, "mirror node has no record", nil)
	case node == nil:
		return m.report(spec, id, DriftMissingMirror, "record has no mirror node", nil)
	}

	want, err := MirrorProperties(doc, spec.IDProperty, id)
	if err != nil {
		return m.report(spec, id, DriftStaleMirror, "record has no graph-safe form", err)
	}
	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !sameValue(want[k], node[k]) {
			return m.report(spec, id, DriftStaleMirror, "property "+k+" differs", nil)
		}
	}
	return nil
}

func (m *Mirror) report(spec MirrorSpec, id string, kind DriftKind, detail string, cause error) *DriftReport {
	return &DriftReport{
		ID:         valueobjects.NewReportID(),
		Entity:     spec.Entity,
		RecordID:   id,
		Kind:       kind,
		Detail:     detail,
		DetectedAt: m.now(),
		Cause:      cause,
	}
}

// drift records a report detected during a write: it is logged, counted and
// published.
func (m *Mirror) drift(ctx context.Context, spec MirrorSpec, id string, kind DriftKind, detail string, cause error) *DriftReport {
	r := m.report(spec, id, kind, detail, cause)
	m.logger.Warn("Cross-store drift detected",
		zap.String("report_id", r.ID),
		zap.String("entity", spec.Entity),
		zap.String("id", id),
		zap.String("kind", string(kind)),
		zap.String("detail", detail),
		zap.Error(cause),
	)
	m.metrics.RecordDrift(spec.Entity, string(kind))
	m.publish(ctx, events.NewDriftDetected(r.ID, spec.Entity, id, string(kind), detail, r.DetectedAt))
	return r
}

func (m *Mirror) publish(ctx context.Context, event events.DomainEvent) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.Error("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.String("aggregate_id", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

// MirrorProperties derives the node properties of a record: its fields
// without the document identifier or nested maps, plus idProperty set to
// id.
func MirrorProperties(doc ports.Document, idProperty, id string) (ports.Properties, error) {
	props := make(ports.Properties, len(doc)+1)
	for k, v := range doc {
		if k == ports.IDField {
			continue
		}
		if err := cypher.ValidateIdentifier("property key", k); err != nil {
			continue
		}
		if gv, ok := graphValue(v); ok {
			props[k] = gv
		}
	}
	props[idProperty] = id
	if _, err := cypher.Normalize(map[string]any(props)); err != nil {
		return nil, err
	}
	return props, nil
}

// graphValue reports whether v can be stored on a node. Nodes hold scalars
// and homogeneous lists of scalars, never maps.
func graphValue(v any) (any, bool) {
	n, err := cypher.Normalize(v)
	if err != nil {
		return nil, false
	}
	switch x := n.(type) {
	case map[string]any:
		return nil, false
	case []any:
		for _, e := range x {
			switch e.(type) {
			case map[string]any, []any:
				return nil, false
			}
		}
		return x, true
	default:
		return x, true
	}
}

func sameValue(want, got any) bool {
	w, err := cypher.Normalize(want)
	if err != nil {
		return false
	}
	g, err := cypher.Normalize(got)
	if err != nil {
		return false
	}
	if wt, ok := w.(time.Time); ok {
		gt, ok := g.(time.Time)
		return ok && wt.Equal(gt)
	}
	if wl, ok := w.([]any); ok && len(wl) == 0 {
		gl, ok := g.([]any)
		return g == nil || (ok && len(gl) == 0)
	}
	return reflect.DeepEqual(w, g)
}
