package events

import (
	"time"
)

// DomainEvent is something that has happened to an aggregate.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, at time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   at,
		Version:     1,
	}
}

// Event types
const (
	TypeEntityMirrored = "entity.mirrored"
	TypeEntityUpdated  = "entity.updated"
	TypeEntityDeleted  = "entity.deleted"
	TypeDriftDetected  = "mirror.drift_detected"
	TypeDriftRepaired  = "mirror.drift_repaired"
	TypeUserRegistered = "user.registered"
)

// EntityMirrored is raised when a record and its graph mirror were both
// written.
type EntityMirrored struct {
	BaseEvent
	Entity string `json:"entity"`
	Label  string `json:"label"`
}

func NewEntityMirrored(entity, label, id string, at time.Time) EntityMirrored {
	return EntityMirrored{BaseEvent: newBase(id, TypeEntityMirrored, at), Entity: entity, Label: label}
}

// EntityUpdated is raised after a mirrored record was updated.
type EntityUpdated struct {
	BaseEvent
	Entity string   `json:"entity"`
	Fields []string `json:"fields"`
}

func NewEntityUpdated(entity, id string, fields []string, at time.Time) EntityUpdated {
	return EntityUpdated{BaseEvent: newBase(id, TypeEntityUpdated, at), Entity: entity, Fields: fields}
}

// EntityDeleted is raised after a mirrored record was deleted from the
// document store.
type EntityDeleted struct {
	BaseEvent
	Entity       string `json:"entity"`
	GraphRemoved bool   `json:"graph_removed"`
}

func NewEntityDeleted(entity, id string, graphRemoved bool, at time.Time) EntityDeleted {
	return EntityDeleted{BaseEvent: newBase(id, TypeEntityDeleted, at), Entity: entity, GraphRemoved: graphRemoved}
}

// DriftDetected reports that a record and its mirror disagree. Consumers
// are monitoring and the reconcile tool; nothing repairs drift
// automatically.
type DriftDetected struct {
	BaseEvent
	ReportID string `json:"report_id"`
	Entity   string `json:"entity"`
	Kind     string `json:"kind"`
	Detail   string `json:"detail,omitempty"`
}

func NewDriftDetected(reportID, entity, id, kind, detail string, at time.Time) DriftDetected {
	return DriftDetected{
		BaseEvent: newBase(id, TypeDriftDetected, at),
		ReportID:  reportID,
		Entity:    entity,
		Kind:      kind,
		Detail:    detail,
	}
}

// DriftRepaired is raised by an explicit reconciliation.
type DriftRepaired struct {
	BaseEvent
	Entity string `json:"entity"`
	Action string `json:"action"`
}

func NewDriftRepaired(entity, id, action string, at time.Time) DriftRepaired {
	return DriftRepaired{BaseEvent: newBase(id, TypeDriftRepaired, at), Entity: entity, Action: action}
}

// UserRegistered is raised when an account is created.
type UserRegistered struct {
	BaseEvent
	Username string `json:"username"`
	OrgID    string `json:"org_id"`
}

func NewUserRegistered(id, username, orgID string, at time.Time) UserRegistered {
	return UserRegistered{BaseEvent: newBase(id, TypeUserRegistered, at), Username: username, OrgID: orgID}
}
