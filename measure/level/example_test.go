package level_test

import (
	"fmt"

	"github.com/cwbudde/algo-psd/dsp/spectrum"
	"github.com/cwbudde/algo-psd/measure/level"
)

func ExampleRMS() {
	// A flat 0.01 g²/Hz PSD from 0 to 100 Hz.
	psd := spectrum.PSD{
		Unit:        "g",
		Frequencies: []float64{0, 25, 50, 75, 100},
		Values:      []float64{0.01, 0.01, 0.01, 0.01, 0.01},
	}

	rms, err := level.RMS(psd)
	if err != nil {
		panic(err)
	}

	band, err := level.RMS(psd, level.WithRange(20, 45))
	if err != nil {
		panic(err)
	}

	fmt.Printf("%.2f %s rms overall, %.2f %s rms in 20-45 Hz\n", rms, psd.Unit, band, psd.Unit)
	// Output: 1.00 g rms overall, 0.50 g rms in 20-45 Hz
}
