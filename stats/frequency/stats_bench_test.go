package frequency

import "testing"

func BenchmarkCalculate(b *testing.B) {
	psd := flatPSD(8192, 1e-3)

	b.ReportAllocs()
	for range b.N {
		if _, err := Calculate(psd); err != nil {
			b.Fatal(err)
		}
	}
}
