package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Main program for the wideband receiver.
 *
 * Description:	Wires a sample source to the receive path:
 *
 *			recorded capture (cu8/cs16/cf32) or stdin, or
 *			a stereo soundcard used as an IQ pair,
 *
 *		through the channelizer, resamplers, decoders and the
 *		duplicate check, with events going to stdout and the
 *		optional sinks (CSV log, TCP stream).
 *
 *		This layer owns the exit flag.  Once a signal trips
 *		it, the read loop stops calling into the core and
 *		tears everything down; the core itself has no timers
 *		and nothing to interrupt.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

type stdout_sink_t struct{}

func (stdout_sink_t) deliver(ev *decode_event_t) {
	os.Stdout.WriteString(ev.to_json() + "\n") //nolint:errcheck,gosec
}

func (stdout_sink_t) close() {}

func MalamuteMain() {

	var config_file = pflag.StringP("config", "c", "", "Configuration file (YAML).")
	var read_file = pflag.StringP("read", "r", "", "Replay a recorded capture ('-' for stdin).")
	var format_name = pflag.StringP("format", "f", "", "Sample format of the capture: cu8, cs16, cf32.  Default from the file extension.")
	var soundcard = pflag.BoolP("audio", "A", false, "Capture IQ from the default stereo soundcard input.")
	var num_channels = pflag.IntP("channels", "n", 0, "Number of channels (power of two, 2-16).")
	var center_hz = pflag.Float64P("center", "F", 0, "RF center frequency in Hz.")
	var input_rate = pflag.IntP("rate", "s", 0, "Wideband sample rate in Hz.")
	var target_rate = pflag.IntP("target-rate", "t", -1, "Per-channel decoder sample rate; 0 keeps the channel rate.")
	var event_port = pflag.IntP("port", "p", -1, "Serve JSON events on this TCP port; 0 disables.")
	var log_file = pflag.StringP("logfile", "L", "", "Append decoded events to this CSV file.")
	var log_dir = pflag.StringP("logdir", "l", "", "Write daily CSV event logs into this directory.")
	var quiet = pflag.BoolP("quiet", "q", false, "Don't print events to stdout.")
	var verbose = pflag.BoolP("verbose", "v", false, "Debug logging.")

	pflag.Parse()

	var logger = log.Default()
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	var cfg = DefaultConfig()
	if *config_file != "" {
		var loaded, err = ConfigLoad(*config_file)
		if err != nil {
			logger.Fatal("bad configuration", "err", err)
		}
		cfg = loaded
	}

	/* Flags override the file. */

	if *num_channels != 0 {
		cfg.NumChannels = *num_channels
	}
	if *center_hz != 0 {
		cfg.CenterHz = *center_hz
	}
	if *input_rate != 0 {
		cfg.InputRate = *input_rate
	}
	if *target_rate >= 0 {
		cfg.TargetRate = *target_rate
	}
	if *event_port >= 0 {
		cfg.EventPort = *event_port
	}
	if *log_file != "" {
		cfg.EventLogDir = ""
	}

	var wideband wideband_t
	if err := wideband_init(&wideband, &cfg, nil); err != nil {
		logger.Fatal("init failed", "err", err)
	}
	defer wideband.free()

	if !*quiet {
		wideband.add_sink(stdout_sink_t{})
	}

	if *log_file != "" {
		var elog event_log_t
		if err := event_log_init(&elog, false, *log_file); err != nil {
			logger.Fatal("event log", "err", err)
		}
		wideband.add_sink(&elog)
	} else if *log_dir != "" || cfg.EventLogDir != "" {
		var dir = IfThenElse(*log_dir != "", *log_dir, cfg.EventLogDir)
		var elog event_log_t
		if err := event_log_init(&elog, true, dir); err != nil {
			logger.Fatal("event log", "err", err)
		}
		wideband.add_sink(&elog)
	}

	if cfg.EventPort > 0 {
		var server event_server_t
		if err := event_server_init(&server, cfg.EventPort, cfg.ServiceName); err != nil {
			logger.Fatal("event server", "err", err)
		}
		wideband.add_sink(&server)
	}

	/*
	 * Exit flag, owned here.  After it trips we stop feeding the
	 * core; nothing inside the core needs interrupting.
	 */

	var exit_flag atomic.Bool
	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("shutting down")
		exit_flag.Store(true)
	}()

	switch {
	case *soundcard:
		run_soundcard(&wideband, &cfg, &exit_flag, logger)
	case *read_file != "":
		run_replay(&wideband, &cfg, *read_file, *format_name, &exit_flag, logger)
	default:
		logger.Fatal("nothing to do: give me --read or --audio")
	}

	var blocks, forwarded, dropped = wideband.stats()
	logger.Info("done", "blocks", blocks, "events", forwarded, "duplicates", dropped)
}

func run_replay(w *wideband_t, cfg *ReceiverConfig, path string, format_name string, exit_flag *atomic.Bool, logger *log.Logger) {

	var format sample_format_t
	var err error

	if format_name != "" {
		format, err = format_from_name(format_name)
	} else if path == "-" {
		format = FORMAT_CF32
	} else {
		format, err = format_from_path(path)
	}
	if err != nil {
		logger.Fatal("sample format", "err", err)
	}

	var in io.Reader = os.Stdin
	if path != "-" {
		var fp, openErr = os.Open(path)
		if openErr != nil {
			logger.Fatal("open capture", "err", openErr)
		}
		defer fp.Close() //nolint:errcheck
		in = fp
	}

	logger.Info("replaying", "path", path, "format", format.String())

	var reader iq_reader_t
	iq_reader_init(&reader, in, format, cfg.BlockSize)

	var block = make([]float32, 2*cfg.BlockSize)

	for !exit_flag.Load() {
		var n, readErr = reader.read_block(block)
		if errors.Is(readErr, io.EOF) {
			return
		}
		if readErr != nil {
			logger.Fatal("read capture", "err", readErr)
		}

		if procErr := w.wideband_process(block[:2*n]); procErr != nil {
			logger.Fatal("processing failed", "err", procErr)
		}
	}
}

func run_soundcard(w *wideband_t, cfg *ReceiverConfig, exit_flag *atomic.Bool, logger *log.Logger) {

	var source audio_source_t
	if err := audio_source_init(&source, cfg.InputRate, cfg.BlockSize); err != nil {
		logger.Fatal("soundcard", "err", err)
	}
	defer source.close()

	logger.Info("capturing from soundcard", "rate", cfg.InputRate)

	for !exit_flag.Load() {
		var block, readErr = source.read_block()
		if readErr != nil {
			logger.Fatal("soundcard read", "err", readErr)
		}

		if procErr := w.wideband_process(block); procErr != nil {
			logger.Fatal("processing failed", "err", procErr)
		}
	}
}
