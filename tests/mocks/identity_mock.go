package mocks

import (
	"github.com/solarstack/solarmon/pkg/identity"
	"github.com/stretchr/testify/mock"
)

// DeviceInfoInterface is a mock implementation of identity.DeviceInfoInterface
type DeviceInfoInterface struct {
	mock.Mock
}

func (m *DeviceInfoInterface) LoadDeviceInfo() error {
	args := m.Called()
	return args.Error(0)
}

func (m *DeviceInfoInterface) SaveDeviceID(deviceID string) error {
	args := m.Called(deviceID)
	return args.Error(0)
}

func (m *DeviceInfoInterface) GetDeviceID() string {
	args := m.Called()
	return args.String(0)
}

func (m *DeviceInfoInterface) GetDeviceIdentity() *identity.Identity {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*identity.Identity)
}
