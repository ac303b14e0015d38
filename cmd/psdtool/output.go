package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/cwbudde/algo-psd/analysis"
)

func writeResult(w io.Writer, res analysis.Result, format string, bands bool) error {
	if bands && res.Octave == nil {
		return fmt.Errorf("result has no octave bands")
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "csv":
		return writeCSV(w, res, bands)
	case "table":
		return writeTable(w, res, bands)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }

func writeCSV(w io.Writer, res analysis.Result, bands bool) error {
	cw := csv.NewWriter(w)

	if bands {
		_ = cw.Write([]string{"center_hz", "lower_hz", "upper_hz", "density", "mean_square", "points"})
		for _, b := range res.Octave.Bands {
			_ = cw.Write([]string{
				formatFloat(b.Center),
				formatFloat(b.Lower),
				formatFloat(b.Upper),
				formatFloat(b.Value),
				formatFloat(b.MeanSquare()),
				strconv.Itoa(b.Points),
			})
		}
	} else {
		_ = cw.Write([]string{"frequency_hz", "density"})
		for i, f := range res.PSD.Frequencies {
			_ = cw.Write([]string{formatFloat(f), formatFloat(res.PSD.Values[i])})
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeTable(w io.Writer, res analysis.Result, bands bool) error {
	psd := res.PSD
	peakF, peakG := psd.Peak()

	fmt.Fprintf(w, "channel   %s (%s)\n", res.Request.Channel, res.Unit)
	fmt.Fprintf(w, "range     %s .. %s, %s samples\n", res.Start.Format("2006-01-02 15:04:05.000"), res.End.Format("15:04:05.000"), humanize.Comma(int64(res.Samples)))
	fmt.Fprintf(w, "estimate  %s, L=%d, df=%.4g Hz, %s taper, %.4g%% overlap, %d segments\n",
		psd.Kind, psd.SegmentLength, psd.ActualDF, psd.Taper, psd.OverlapPercent, psd.Segments)
	if psd.Windows > 0 {
		fmt.Fprintf(w, "maximax   %d windows of %.4g s, %.4g%% overlap\n", psd.Windows, psd.WindowDuration, psd.WindowOverlapPercent)
	}
	fmt.Fprintf(w, "peak      %.4g %s at %.4g Hz\n", peakG, psd.DensityUnit(), peakF)
	fmt.Fprintf(w, "level     %.4g %s rms in %.4g..%.4g Hz (time domain %.4g %s rms)\n",
		res.Level.RMS, res.Unit, res.Level.FMin, res.Level.FMax, res.Time.StdDev, res.Unit)
	if res.Octave != nil {
		fmt.Fprintf(w, "bands     1/%d octave, %.4g %s rms\n", res.Octave.Fraction, res.Level.OctaveRMS, res.Unit)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if bands {
		fmt.Fprintf(tw, "Center [Hz]\tLower [Hz]\tUpper [Hz]\tDensity [%s]\tMean square\tPoints\t\n", psd.DensityUnit())
		for _, b := range res.Octave.Bands {
			fmt.Fprintf(tw, "%.4g\t%.4g\t%.4g\t%.4e\t%.4e\t%d\t\n", b.Center, b.Lower, b.Upper, b.Value, b.MeanSquare(), b.Points)
		}
	} else {
		fmt.Fprintf(tw, "Frequency [Hz]\tDensity [%s]\t\n", psd.DensityUnit())
		for i, f := range psd.Frequencies {
			fmt.Fprintf(tw, "%.6g\t%.6e\t\n", f, psd.Values[i])
		}
	}
	return tw.Flush()
}
