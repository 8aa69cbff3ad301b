// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/subdiv"
)

// DeviceContext bundles the HAL device and queue every wgpu-backend
// object dispatches through. It either owns a standalone compute
// device or borrows one from the host application.
type DeviceContext struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// ownsDevice is set when NewDeviceContext created the instance
	// and device; Close only destroys what the context owns.
	ownsDevice bool
}

// NewDeviceContext creates a standalone Vulkan compute device. Used
// when the application does not already hold a gogpu/wgpu device.
func NewDeviceContext() (*DeviceContext, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	subdiv.Logger().Info("wgpu: device acquired", "adapter", selected.Info.Name)
	return &DeviceContext{
		instance:   instance,
		device:     openDev.Device,
		queue:      openDev.Queue,
		ownsDevice: true,
	}, nil
}

// NewDeviceContextFrom wraps an externally owned device and queue.
// Close will not destroy them.
func NewDeviceContextFrom(device hal.Device, queue hal.Queue) *DeviceContext {
	return &DeviceContext{device: device, queue: queue}
}

// Device returns the HAL device.
func (c *DeviceContext) Device() hal.Device { return c.device }

// Queue returns the HAL queue.
func (c *DeviceContext) Queue() hal.Queue { return c.queue }

// Close destroys the device and instance if the context owns them.
func (c *DeviceContext) Close() {
	if !c.ownsDevice {
		return
	}
	if c.device != nil {
		c.device.Destroy()
		c.device = nil
	}
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
}
