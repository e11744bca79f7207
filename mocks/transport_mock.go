// Package mocks provides hand-authored, golang/mock-shaped test
// doubles for the iface package's collaborator interfaces. These are
// written in mockgen's generated-code shape (Controller, MockRecorder,
// EXPECT()) without actually running mockgen, since this module has no
// protoc/mockgen codegen step of its own.
package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
)

// MockDatagramTransport is a mock of the iface.DatagramTransport interface.
type MockDatagramTransport struct {
	ctrl     *gomock.Controller
	recorder *MockDatagramTransportMockRecorder
}

type MockDatagramTransportMockRecorder struct {
	mock *MockDatagramTransport
}

func NewMockDatagramTransport(ctrl *gomock.Controller) *MockDatagramTransport {
	m := &MockDatagramTransport{ctrl: ctrl}
	m.recorder = &MockDatagramTransportMockRecorder{m}
	return m
}

func (m *MockDatagramTransport) EXPECT() *MockDatagramTransportMockRecorder {
	return m.recorder
}

func (m *MockDatagramTransport) Send(ctx context.Context, dst string, b []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Send", ctx, dst, b)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockDatagramTransportMockRecorder) Send(ctx, dst, b any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Send", reflect.TypeOf((*MockDatagramTransport)(nil).Send), ctx, dst, b)
}

func (m *MockDatagramTransport) Recv(ctx context.Context) (string, []byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Recv", ctx)
	src, _ := ret[0].(string)
	b, _ := ret[1].([]byte)
	err, _ := ret[2].(error)
	return src, b, err
}

func (mr *MockDatagramTransportMockRecorder) Recv(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Recv", reflect.TypeOf((*MockDatagramTransport)(nil).Recv), ctx)
}
