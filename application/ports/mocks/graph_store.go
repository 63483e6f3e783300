package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"templatehub/application/ports"
)

type MockGraphStore struct {
	mock.Mock
}

var _ ports.GraphStore = (*MockGraphStore)(nil)

func (m *MockGraphStore) CreateNode(ctx context.Context, node ports.NodeSpec) (ports.Properties, error) {
	args := m.Called(ctx, node)
	return props(args.Get(0)), args.Error(1)
}

func (m *MockGraphStore) CreateRelationship(ctx context.Context, rel ports.RelationshipSpec) (*ports.Relationship, error) {
	args := m.Called(ctx, rel)
	if r := args.Get(0); r != nil {
		return r.(*ports.Relationship), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGraphStore) ReadNode(ctx context.Context, query ports.NodeQuery) (ports.Properties, error) {
	args := m.Called(ctx, query)
	return props(args.Get(0)), args.Error(1)
}

func (m *MockGraphStore) ReadNodes(ctx context.Context, query ports.NodeQuery) ([]ports.Properties, error) {
	args := m.Called(ctx, query)
	if nodes := args.Get(0); nodes != nil {
		return nodes.([]ports.Properties), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGraphStore) ReadRelationship(ctx context.Context, rel ports.RelationshipSpec) (*ports.Relationship, error) {
	args := m.Called(ctx, rel)
	if r := args.Get(0); r != nil {
		return r.(*ports.Relationship), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGraphStore) ReadRelationships(ctx context.Context, rel ports.RelationshipSpec) ([]ports.Relationship, error) {
	args := m.Called(ctx, rel)
	if rels := args.Get(0); rels != nil {
		return rels.([]ports.Relationship), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGraphStore) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	args := m.Called(ctx, cypher, params)
	if rows := args.Get(0); rows != nil {
		return rows.([]map[string]any), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGraphStore) UpdateNodes(ctx context.Context, match ports.NodeSpec, set ports.Properties) ([]ports.Properties, error) {
	args := m.Called(ctx, match, set)
	if nodes := args.Get(0); nodes != nil {
		return nodes.([]ports.Properties), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGraphStore) UpdateRelationship(ctx context.Context, rel ports.RelationshipSpec, set ports.Properties) (*ports.Relationship, error) {
	args := m.Called(ctx, rel, set)
	if r := args.Get(0); r != nil {
		return r.(*ports.Relationship), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGraphStore) DeleteNode(ctx context.Context, match ports.NodeSpec) (int64, error) {
	args := m.Called(ctx, match)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGraphStore) DeleteRelationship(ctx context.Context, rel ports.RelationshipSpec) (int64, error) {
	args := m.Called(ctx, rel)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGraphStore) CreateIndex(ctx context.Context, label, property string) error {
	return m.Called(ctx, label, property).Error(0)
}

func (m *MockGraphStore) Drop(ctx context.Context, label string) (int64, error) {
	args := m.Called(ctx, label)
	return args.Get(0).(int64), args.Error(1)
}

func props(v any) ports.Properties {
	if v == nil {
		return nil
	}
	return v.(ports.Properties)
}
