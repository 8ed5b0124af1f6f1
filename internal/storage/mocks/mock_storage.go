package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"docstore/internal/model"
	"docstore/internal/storage"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Kind() model.StorageKind {
	args := m.Called()
	return args.Get(0).(model.StorageKind)
}

func (m *MockBackend) Put(ctx context.Context, originalName string, r io.Reader) (storage.ObjectInfo, error) {
	args := m.Called(ctx, originalName, r)
	if f, ok := args.Get(0).(func(context.Context, string, io.Reader) storage.ObjectInfo); ok {
		return f(ctx, originalName, r), args.Error(1)
	}
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockBackend) Get(ctx context.Context, loc model.Location) (io.ReadCloser, int64, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(int64), args.Error(2)
}

func (m *MockBackend) Delete(ctx context.Context, loc model.Location) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}
