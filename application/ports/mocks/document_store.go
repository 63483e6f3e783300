// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"templatehub/application/ports"
)

type MockDocumentStore struct {
	mock.Mock
}

var _ ports.DocumentStore = (*MockDocumentStore)(nil)

func (m *MockDocumentStore) Create(ctx context.Context, collection string, doc ports.Document) (string, error) {
	args := m.Called(ctx, collection, doc)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) CreateMany(ctx context.Context, collection string, docs []ports.Document) ([]string, error) {
	args := m.Called(ctx, collection, docs)
	if ids := args.Get(0); ids != nil {
		return ids.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentStore) Read(ctx context.Context, collection string, filter ports.Document, opts ports.ReadOptions) (ports.Document, error) {
	args := m.Called(ctx, collection, filter, opts)
	if doc := args.Get(0); doc != nil {
		return doc.(ports.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentStore) ReadMany(ctx context.Context, collection string, filter ports.Document, opts ports.ReadOptions) ([]ports.Document, error) {
	args := m.Called(ctx, collection, filter, opts)
	if docs := args.Get(0); docs != nil {
		return docs.([]ports.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentStore) Count(ctx context.Context, collection string, filter ports.Document) (int64, error) {
	args := m.Called(ctx, collection, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentStore) Update(ctx context.Context, collection string, filter ports.Document, update ports.Update) (int64, error) {
	args := m.Called(ctx, collection, filter, update)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentStore) Delete(ctx context.Context, collection string, filter ports.Document, many bool) (int64, error) {
	args := m.Called(ctx, collection, filter, many)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentStore) CreateIndex(ctx context.Context, collection string, spec ports.IndexSpec) (string, error) {
	args := m.Called(ctx, collection, spec)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) DropIndex(ctx context.Context, collection, name string) error {
	return m.Called(ctx, collection, name).Error(0)
}

func (m *MockDocumentStore) DropCollection(ctx context.Context, collection string) error {
	return m.Called(ctx, collection).Error(0)
}

func (m *MockDocumentStore) DropDatabase(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
