// Package providers - CoreML execution provider.
package providers

const (
	// CoreMLProviderBackend uses Apple CoreML for macOS/iOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
)

// CoreML flags accepted by AppendExecutionProviderCoreML.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
const (
	// CoreMLFlagUseCPUOnly limits CoreML to running on CPU only.
	CoreMLFlagUseCPUOnly uint32 = 0x001
	// CoreMLFlagEnableOnSubgraph lets CoreML run inside control flow subgraphs.
	CoreMLFlagEnableOnSubgraph uint32 = 0x002
	// CoreMLFlagOnlyEnableDeviceWithANE restricts CoreML to devices with a Neural Engine.
	CoreMLFlagOnlyEnableDeviceWithANE uint32 = 0x004
	// CoreMLFlagOnlyAllowStaticInputShapes keeps dynamic-shape nodes off CoreML.
	CoreMLFlagOnlyAllowStaticInputShapes uint32 = 0x008
)

// CoreMLOptions contains arguments for the CoreML provider.
type CoreMLOptions struct {
	// Flags is a bitwise OR of the CoreMLFlag constants.
	Flags uint32 `json:"flags" yaml:"flags"`
}
