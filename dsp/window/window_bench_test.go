package window

import (
	"strconv"
	"testing"
)

func BenchmarkGenerate(b *testing.B) {
	sizes := []int{256, 1024, 4096, 16384}
	for _, n := range sizes {
		for _, typ := range []Type{TypeHann, TypeBlackmanHarris4Term, TypeKaiser} {
			b.Run(typ.String()+"/"+strconv.Itoa(n), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					_ = Generate(typ, n, WithPeriodic())
				}
			})
		}
	}
}

func BenchmarkApplyCoefficients(b *testing.B) {
	sizes := []int{1024, 16384}
	for _, n := range sizes {
		b.Run(strconv.Itoa(n), func(b *testing.B) {
			coeffs := Generate(TypeHann, n, WithPeriodic())
			src := make([]float64, n)
			dst := make([]float64, n)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = ApplyCoefficients(dst, src, coeffs)
			}
		})
	}
}
