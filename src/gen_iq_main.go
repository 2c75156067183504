package malamute

/*-------------------------------------------------------------------
 *
 * Purpose:     Generate CF32 test captures.
 *
 * Description:	Writes one or more complex tones, optionally buried in
 *		noise, to a CF32 file the receiver can replay.  Handy
 *		for checking channel routing against known inputs:
 *
 *		  malamute-gen-iq -s 2500000 -f 312500 -o tone.cf32
 *		  malamute -r tone.cf32 -n 8 -s 2500000
 *
 *--------------------------------------------------------------------*/

import (
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

func GenIQMain() {

	var out_path = pflag.StringP("output", "o", "", "Output file ('-' for stdout).")
	var sample_hz = pflag.IntP("rate", "s", 2_500_000, "Sample rate in Hz.")
	var tones = pflag.StringP("freqs", "f", "0", "Comma separated tone offsets in Hz.")
	var amplitude = pflag.Float64P("amplitude", "a", 1.0, "Per-tone amplitude.")
	var noise_rms = pflag.Float64P("noise", "N", 0, "Gaussian noise RMS per component.")
	var n_samples = pflag.IntP("samples", "n", 0, "Number of complex samples.")
	var seconds = pflag.Float64P("seconds", "T", 1.0, "Duration when --samples is not given.")
	var seed = pflag.Int64("seed", 1, "Noise generator seed.")

	pflag.Parse()

	var logger = log.Default()

	if *out_path == "" {
		logger.Fatal("an output file is required (-o)")
	}
	if *sample_hz <= 0 {
		logger.Fatal("sample rate must be positive")
	}

	var n = *n_samples
	if n <= 0 {
		n = int(*seconds * float64(*sample_hz))
	}
	if n <= 0 {
		logger.Fatal("nothing to generate")
	}

	var gens []tone_gen_t
	for _, f := range strings.Split(*tones, ",") {
		var freq, parseErr = strconv.ParseFloat(strings.TrimSpace(f), 64)
		if parseErr != nil {
			logger.Fatal("bad tone frequency", "value", f, "err", parseErr)
		}

		var g tone_gen_t
		tone_gen_init(&g, freq, float64(*sample_hz), *amplitude)
		gens = append(gens, g)
	}

	var out = os.Stdout
	if *out_path != "-" {
		var fp, openErr = os.Create(*out_path)
		if openErr != nil {
			logger.Fatal("create output", "err", openErr)
		}
		defer fp.Close() //nolint:errcheck
		out = fp
	}

	var rng = rand.New(rand.NewSource(*seed)) //nolint:gosec // test signals, not crypto

	const block = 8192
	var iq = make([]float32, 2*block)
	var raw = make([]byte, 8*block)

	for remaining := n; remaining > 0; {
		var this = min(remaining, block)
		var span = iq[:2*this]

		for i := range span {
			span[i] = 0
		}
		for g := range gens {
			gens[g].mix(span)
		}
		if *noise_rms > 0 {
			add_noise(span, *noise_rms, rng)
		}

		cf32_to_bytes(raw[:8*this], span)
		if _, err := out.Write(raw[:8*this]); err != nil {
			logger.Fatal("write failed", "err", err)
		}

		remaining -= this
	}

	logger.Info("wrote capture", "path", *out_path, "samples", n, "rate", *sample_hz, "tones", *tones)
}
