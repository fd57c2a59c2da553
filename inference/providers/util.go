package providers

import (
	"os"
	"runtime"
)

// SharedLibEnv overrides the ONNX Runtime shared library location.
const SharedLibEnv = "ONNXRUNTIME_LIB"

// SharedLibPath returns the path to the ONNX Runtime shared library for the
// current platform, or the value of ONNXRUNTIME_LIB when set.
func SharedLibPath() string {
	if p := os.Getenv(SharedLibEnv); p != "" {
		return p
	}
	return defaultSharedLibPath(runtime.GOOS, runtime.GOARCH)
}

func defaultSharedLibPath(goos, goarch string) string {
	switch goos {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	case "linux":
		if goarch == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	default:
		return ""
	}
}
