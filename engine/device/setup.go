package device

import (
	"fmt"
	"log"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
)

// Device is the one-time Vulkan bring-up result: instance, physical device,
// logical device, and the graphics and compute queues. Any failure during
// setup is fatal; there is no fallback path and no device recreation.
type Device interface {
	// Instance returns the Vulkan instance.
	//
	// Returns:
	//   - vk.Instance: the instance
	Instance() vk.Instance

	// PhysicalDevice returns the selected physical device.
	//
	// Returns:
	//   - vk.PhysicalDevice: the physical device
	PhysicalDevice() vk.PhysicalDevice

	// Handle returns the logical device.
	//
	// Returns:
	//   - vk.Device: the logical device
	Handle() vk.Device

	// GraphicsQueue returns the graphics queue.
	//
	// Returns:
	//   - vk.Queue: the graphics queue
	GraphicsQueue() vk.Queue

	// ComputeQueue returns the compute queue. May be the same queue as
	// graphics when the device exposes no dedicated compute family.
	//
	// Returns:
	//   - vk.Queue: the compute queue
	ComputeQueue() vk.Queue

	// QueueFamily returns the queue family index for the given queue kind.
	//
	// Parameters:
	//   - kind: graphics or compute
	//
	// Returns:
	//   - uint32: the family index
	QueueFamily(kind QueueKind) uint32

	// SameQueueFamily reports whether graphics and compute share one
	// queue family. When true no ownership transfers are needed.
	//
	// Returns:
	//   - bool: true when the families are identical
	SameQueueFamily() bool

	// WaitIdle blocks until the device finishes all submitted work.
	//
	// Returns:
	//   - error: non-nil if the wait failed
	WaitIdle() error

	// Destroy releases the logical device and the instance.
	Destroy()
}

type deviceImpl struct {
	instance       vk.Instance
	gpu            vk.PhysicalDevice
	device         vk.Device
	graphicsQueue  vk.Queue
	computeQueue   vk.Queue
	graphicsFamily uint32
	computeFamily  uint32
}

var _ Device = &deviceImpl{}

type setupConfig struct {
	appName    string
	validation bool
	extensions []string
}

// SetupOption configures device bring-up.
type SetupOption func(*setupConfig)

// WithAppName sets the application name reported to the driver.
//
// Parameters:
//   - name: the application name
//
// Returns:
//   - SetupOption: the option
func WithAppName(name string) SetupOption {
	return func(c *setupConfig) {
		c.appName = name
	}
}

// WithValidation enables the Khronos validation layer.
//
// Returns:
//   - SetupOption: the option
func WithValidation() SetupOption {
	return func(c *setupConfig) {
		c.validation = true
	}
}

// WithInstanceExtensions appends instance extensions. Presentation setups
// pass the windowing layer's required extensions here; headless setups
// pass nothing.
//
// Parameters:
//   - exts: extension names, null termination optional
//
// Returns:
//   - SetupOption: the option
func WithInstanceExtensions(exts ...string) SetupOption {
	return func(c *setupConfig) {
		c.extensions = append(c.extensions, exts...)
	}
}

// Setup performs one-time Vulkan bring-up: loads the loader through GLFW,
// creates an instance, picks a physical device, and creates a logical
// device with one graphics queue and one compute queue. A dedicated
// compute-only family is preferred when present so culling work can
// overlap rendering; otherwise compute shares the graphics family.
//
// Parameters:
//   - opts: setup options
//
// Returns:
//   - Device: the initialized device
//   - error: non-nil if any step failed; setup errors are not recoverable
func Setup(opts ...SetupOption) (Device, error) {
	cfg := &setupConfig{appName: "mjolnir"}
	for _, opt := range opts {
		opt(cfg)
	}

	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("vulkan loader init failed: %w", err)
	}

	extensions := append([]string(nil), cfg.extensions...)
	var layers []string
	if cfg.validation {
		layers = append(layers, "VK_LAYER_KHRONOS_validation\x00")
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   cfg.appName + "\x00",
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PEngineName:        "mjolnir\x00",
			EngineVersion:      vk.MakeVersion(1, 0, 0),
			ApiVersion:         vk.MakeVersion(1, 1, 0),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &instance); res != vk.Success {
		return nil, fmt.Errorf("instance creation failed: %w", vk.Error(res))
	}
	vk.InitInstance(instance)

	gpu, err := pickPhysicalDevice(instance)
	if err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, err
	}

	graphicsFamily, computeFamily, err := pickQueueFamilies(gpu)
	if err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, err
	}

	queuePriorities := []float32{1.0}
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: graphicsFamily,
		QueueCount:       1,
		PQueuePriorities: queuePriorities,
	}}
	if computeFamily != graphicsFamily {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: computeFamily,
			QueueCount:       1,
			PQueuePriorities: queuePriorities,
		})
	}

	deviceExtensions := []string{
		"VK_KHR_swapchain\x00",
		"VK_KHR_draw_indirect_count\x00",
	}
	var device vk.Device
	if res := vk.CreateDevice(gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			MultiDrawIndirect:         vk.True,
			SamplerAnisotropy:         vk.True,
			DrawIndirectFirstInstance: vk.True,
		}},
	}, nil, &device); res != vk.Success {
		vk.DestroyInstance(instance, nil)
		return nil, fmt.Errorf("device creation failed: %w", vk.Error(res))
	}

	var graphicsQueue, computeQueue vk.Queue
	vk.GetDeviceQueue(device, graphicsFamily, 0, &graphicsQueue)
	if computeFamily != graphicsFamily {
		vk.GetDeviceQueue(device, computeFamily, 0, &computeQueue)
	} else {
		computeQueue = graphicsQueue
	}

	log.Printf("device: graphics family %d, compute family %d", graphicsFamily, computeFamily)

	return &deviceImpl{
		instance:       instance,
		gpu:            gpu,
		device:         device,
		graphicsQueue:  graphicsQueue,
		computeQueue:   computeQueue,
		graphicsFamily: graphicsFamily,
		computeFamily:  computeFamily,
	}, nil
}

// pickPhysicalDevice selects the first discrete GPU, falling back to the
// first device of any type.
func pickPhysicalDevice(instance vk.Instance) (vk.PhysicalDevice, error) {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(instance, &count, nil); res != vk.Success {
		return nil, fmt.Errorf("physical device enumeration failed: %w", vk.Error(res))
	}
	if count == 0 {
		return nil, fmt.Errorf("no vulkan-capable device found")
	}
	gpus := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(instance, &count, gpus); res != vk.Success {
		return nil, fmt.Errorf("physical device enumeration failed: %w", vk.Error(res))
	}
	for _, gpu := range gpus {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(gpu, &props)
		props.Deref()
		if props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			return gpu, nil
		}
	}
	return gpus[0], nil
}

// pickQueueFamilies returns a graphics family and a compute family,
// preferring a compute-only family over reusing the graphics one.
func pickQueueFamilies(gpu vk.PhysicalDevice) (uint32, uint32, error) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, families)

	graphicsFamily := uint32(vk.QueueFamilyIgnored)
	computeFamily := uint32(vk.QueueFamilyIgnored)
	for i := range families {
		families[i].Deref()
		flags := families[i].QueueFlags
		if flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 && graphicsFamily == uint32(vk.QueueFamilyIgnored) {
			graphicsFamily = uint32(i)
		}
		if flags&vk.QueueFlags(vk.QueueComputeBit) != 0 && flags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			computeFamily = uint32(i)
		}
	}
	if graphicsFamily == uint32(vk.QueueFamilyIgnored) {
		return 0, 0, fmt.Errorf("no graphics queue family found")
	}
	if computeFamily == uint32(vk.QueueFamilyIgnored) {
		computeFamily = graphicsFamily
	}
	return graphicsFamily, computeFamily, nil
}

// safeStrings null-terminates strings for the C side.
func safeStrings(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		if len(s) == 0 || s[len(s)-1] != '\x00' {
			s = s + "\x00"
		}
		out[i] = s
	}
	return out
}

func (d *deviceImpl) Instance() vk.Instance {
	return d.instance
}

func (d *deviceImpl) PhysicalDevice() vk.PhysicalDevice {
	return d.gpu
}

func (d *deviceImpl) Handle() vk.Device {
	return d.device
}

func (d *deviceImpl) GraphicsQueue() vk.Queue {
	return d.graphicsQueue
}

func (d *deviceImpl) ComputeQueue() vk.Queue {
	return d.computeQueue
}

func (d *deviceImpl) QueueFamily(kind QueueKind) uint32 {
	if kind == QueueCompute {
		return d.computeFamily
	}
	return d.graphicsFamily
}

func (d *deviceImpl) SameQueueFamily() bool {
	return d.graphicsFamily == d.computeFamily
}

func (d *deviceImpl) WaitIdle() error {
	if res := vk.DeviceWaitIdle(d.device); res != vk.Success {
		return fmt.Errorf("device wait idle failed: %w", vk.Error(res))
	}
	return nil
}

func (d *deviceImpl) Destroy() {
	vk.DestroyDevice(d.device, nil)
	vk.DestroyInstance(d.instance, nil)
}
