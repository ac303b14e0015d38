// Command taperinfo prints the properties of the tapers the PSD estimators
// accept, to help choose one.
//
// Usage:
//
//	taperinfo [flags] [taper-name ...]
//
// Without arguments it prints every taper. With -fs and -df the segment
// length is planned exactly like the estimators do and the noise bandwidth
// is also given in Hz.
//
// Examples:
//
//	taperinfo hann
//	taperinfo -fs 2048 -df 0.5 hann flattop
//	taperinfo -list
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-psd/dsp/spectrum"
	"github.com/cwbudde/algo-psd/dsp/window"
)

func main() {
	size := flag.Int("size", 1024, "segment length in samples when -fs is not given")
	fs := flag.Float64("fs", 0, "sample rate in Hz; with -df plans the segment length")
	df := flag.Float64("df", 1, "desired frequency resolution in Hz (with -fs)")
	efficient := flag.Bool("efficient", true, "round the segment length up to a power of two (with -fs)")
	list := flag.Bool("list", false, "list available taper names")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: taperinfo [flags] [taper-name ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints properties of the PSD tapers in their periodic form.\n")
		fmt.Fprintf(os.Stderr, "Without arguments, prints every taper.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  taperinfo hann blackman\n")
		fmt.Fprintf(os.Stderr, "  taperinfo -fs 2048 -df 0.5\n")
		fmt.Fprintf(os.Stderr, "  taperinfo -list\n")
	}
	flag.Parse()

	if *list {
		for _, t := range window.Types() {
			fmt.Println(t)
		}
		return
	}

	tapers, err := resolve(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	length, binHz := *size, 0.0
	if *fs > 0 {
		plan, err := spectrum.NewPlan(*fs, *df, *efficient)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		length, binHz = plan.SegmentLength, plan.ActualDF
		fmt.Printf("plan: %s (%.4g s per segment)\n\n", plan, plan.SegmentDuration())
	}

	if length < 2 {
		fmt.Fprintf(os.Stderr, "error: segment length must be >= 2: %d\n", length)
		os.Exit(1)
	}

	printAnalysis(tapers, length, binHz)
}

func resolve(names []string) ([]window.Type, error) {
	if len(names) == 0 {
		return window.Types(), nil
	}

	out := make([]window.Type, 0, len(names))
	for _, name := range names {
		t, err := window.ParseType(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("%w (use -list to see available)", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func printAnalysis(tapers []window.Type, length int, binHz float64) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "Taper\tL\tCoherent Gain\tPower Gain\tENBW [bins]\tBW 3dB [bins]\tSidelobe [dB]\tScallop [dB]"
	rule := "-----\t-\t-------------\t----------\t-----------\t-------------\t-------------\t------------"
	if binHz > 0 {
		header += "\tENBW [Hz]"
		rule += "\t---------"
	}
	if _, err := fmt.Fprintf(tw, "%s\n%s\n", header, rule); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	for _, t := range tapers {
		a := window.Analyze(window.Generate(t, length, window.WithPeriodic()))

		row := fmt.Sprintf("%s\t%d\t%.6f\t%.6f\t%.4f\t%.4f\t%.2f\t%.4f",
			t, length, a.CoherentGain, a.PowerGain, a.ENBW, a.Bandwidth3dB, a.HighestSidelobedB, a.ScallopLossdB)
		if binHz > 0 {
			row += fmt.Sprintf("\t%.4g", a.ENBW*binHz)
		}

		if _, err := fmt.Fprintln(tw, row); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}
