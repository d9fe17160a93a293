// Code generated by MockGen. DO NOT EDIT.
// Source: shelfsearch/internal/vectorstore (interfaces: VectorStore)
//
// Generated by this command:
//
//	mockgen -destination=mocks/mock_vector_store.go -package=mocks shelfsearch/internal/vectorstore VectorStore
//

// Package mocks is a generated GoMock package.
package mocks

import (
	context "context"
	reflect "reflect"
	vectorstore "shelfsearch/internal/vectorstore"

	gomock "go.uber.org/mock/gomock"
)

// MockVectorStore is a mock of VectorStore interface.
type MockVectorStore struct {
	ctrl     *gomock.Controller
	recorder *MockVectorStoreMockRecorder
	isgomock struct{}
}

// MockVectorStoreMockRecorder is the mock recorder for MockVectorStore.
type MockVectorStoreMockRecorder struct {
	mock *MockVectorStore
}

// NewMockVectorStore creates a new mock instance.
func NewMockVectorStore(ctrl *gomock.Controller) *MockVectorStore {
	mock := &MockVectorStore{ctrl: ctrl}
	mock.recorder = &MockVectorStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockVectorStore) EXPECT() *MockVectorStoreMockRecorder {
	return m.recorder
}

// EnsureCollection mocks base method.
func (m *MockVectorStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "EnsureCollection", ctx, collection, vectorSize)
	ret0, _ := ret[0].(error)
	return ret0
}

// EnsureCollection indicates an expected call of EnsureCollection.
func (mr *MockVectorStoreMockRecorder) EnsureCollection(ctx, collection, vectorSize any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EnsureCollection", reflect.TypeOf((*MockVectorStore)(nil).EnsureCollection), ctx, collection, vectorSize)
}

// Upsert mocks base method.
func (m *MockVectorStore) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Upsert", ctx, collection, points)
	ret0, _ := ret[0].(error)
	return ret0
}

// Upsert indicates an expected call of Upsert.
func (mr *MockVectorStoreMockRecorder) Upsert(ctx, collection, points any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Upsert", reflect.TypeOf((*MockVectorStore)(nil).Upsert), ctx, collection, points)
}
