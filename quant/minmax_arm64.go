//go:build arm64

package quant

import "golang.org/x/sys/cpu"

// NEON registers hold four float32 lanes; SVE implementations run at
// least twice that wide.
func init() {
	if cpu.ARM64.HasSVE {
		reduceLanes = 8
	} else {
		reduceLanes = 4
	}
}
