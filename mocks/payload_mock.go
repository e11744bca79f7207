package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
)

// MockPayloadSink is a mock of the iface.PayloadSink interface.
type MockPayloadSink struct {
	ctrl     *gomock.Controller
	recorder *MockPayloadSinkMockRecorder
}

type MockPayloadSinkMockRecorder struct {
	mock *MockPayloadSink
}

func NewMockPayloadSink(ctrl *gomock.Controller) *MockPayloadSink {
	m := &MockPayloadSink{ctrl: ctrl}
	m.recorder = &MockPayloadSinkMockRecorder{m}
	return m
}

func (m *MockPayloadSink) EXPECT() *MockPayloadSinkMockRecorder { return m.recorder }

func (m *MockPayloadSink) Deliver(pkt []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Deliver", pkt)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockPayloadSinkMockRecorder) Deliver(pkt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Deliver", reflect.TypeOf((*MockPayloadSink)(nil).Deliver), pkt)
}

// MockPayloadSource is a mock of the iface.PayloadSource interface.
type MockPayloadSource struct {
	ctrl     *gomock.Controller
	recorder *MockPayloadSourceMockRecorder
}

type MockPayloadSourceMockRecorder struct {
	mock *MockPayloadSource
}

func NewMockPayloadSource(ctrl *gomock.Controller) *MockPayloadSource {
	m := &MockPayloadSource{ctrl: ctrl}
	m.recorder = &MockPayloadSourceMockRecorder{m}
	return m
}

func (m *MockPayloadSource) EXPECT() *MockPayloadSourceMockRecorder { return m.recorder }

func (m *MockPayloadSource) NextOutbound(ctx context.Context) ([]byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NextOutbound", ctx)
	b, _ := ret[0].([]byte)
	err, _ := ret[1].(error)
	return b, err
}

func (mr *MockPayloadSourceMockRecorder) NextOutbound(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NextOutbound", reflect.TypeOf((*MockPayloadSource)(nil).NextOutbound), ctx)
}
