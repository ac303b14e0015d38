package spectrum

import (
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// PowerInto computes |X[k]|^2 of the complex bins into dst, which must have
// the same length as bins.
//
// Real and imaginary parts are unpacked into pooled scratch so the SIMD
// kernels of algo-vecmath can run on contiguous slices; in steady state this
// does not allocate.
func PowerInto(dst []float64, bins []complex128) {
	if len(bins) == 0 {
		return
	}

	re, im, buf := getScratch(len(bins))
	for i, c := range bins {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Power(dst, re, im)
	putScratch(buf)
}

// Power returns |X[k]|^2 for each complex spectrum bin.
func Power(bins []complex128) []float64 {
	if len(bins) == 0 {
		return nil
	}

	out := make([]float64, len(bins))
	PowerInto(out, bins)

	return out
}
