//go:build amd64

package quant

import "golang.org/x/sys/cpu"

// Wider vector units reward more independent accumulator chains. These
// counts track the float32 lane width of the widest available unit.
func init() {
	switch {
	case cpu.X86.HasAVX512:
		reduceLanes = 16
	case cpu.X86.HasAVX2:
		reduceLanes = 8
	default:
		reduceLanes = 4
	}
}
