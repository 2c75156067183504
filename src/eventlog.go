package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Save forwarded decode events to a log file.
 *
 * Description: Rather than the raw JSON stream, write separated
 *		properties into CSV format for easy reading and later
 *		processing.
 *
 *		There are two alternatives here.
 *
 *		A full file path gives one continuous log.
 *
 *		A directory gives daily file names inside it, using a
 *		strftime pattern, so long-running monitors rotate for
 *		free.
 *
 *		The file stays open between events; we don't open and
 *		close for every new item.  Crossing midnight (for the
 *		daily case) closes the old file and opens the next.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

const eventlog_daily_pattern = "%Y-%m-%d.csv"

var eventlog_columns = []string{"time", "channel", "freq_hz", "model", "rssi_db", "fields"}

type event_log_t struct {
	daily_names bool
	path        string /* directory when daily_names, else full name */

	fp         *os.File
	open_fname string

	logger *log.Logger
}

/*------------------------------------------------------------------
 *
 * Function:	event_log_init
 *
 * Purpose:	Set up the event log sink.
 *
 * Inputs:	daily_names	- True if daily names should be generated.
 *				  In this case path is a directory.
 *				  When false, path is the file name.
 *
 *		path		- Log file name or just directory.
 *				  Use "." for current directory.
 *
 *------------------------------------------------------------------*/

func event_log_init(e *event_log_t, daily_names bool, path string) error {

	*e = event_log_t{
		daily_names: daily_names,
		path:        path,
		logger:      log.WithPrefix("eventlog"),
	}

	if daily_names {
		var st, statErr = os.Stat(path)
		if statErr != nil || !st.IsDir() {
			return invalid_argf("event log directory %q is not a directory", path)
		}

		return nil
	}

	var fp, openErr = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if openErr != nil {
		return fmt.Errorf("event log: %w", openErr)
	}

	e.fp = fp
	e.write_header_if_new()

	return nil
}

func (e *event_log_t) deliver(ev *decode_event_t) {

	if e.daily_names {
		e.rotate(ev.received_at)
	}

	if e.fp == nil {
		return
	}

	var model = ""
	var rssi = ""
	if v, ok := ev.field("model"); ok && v.kind == FIELD_STRING {
		model = v.string_val
	}
	if v, ok := ev.field("rssi_db"); ok && v.kind == FIELD_DOUBLE {
		rssi = strconv.FormatFloat(v.double_val, 'f', 1, 64)
	}

	/* Everything else goes into one quoted key=value column. */

	var rest []string
	for _, f := range ev.fields {
		if f.key == "model" || f.key == "rssi_db" {
			continue
		}

		switch f.value.kind {
		case FIELD_INT:
			rest = append(rest, f.key+"="+strconv.FormatInt(f.value.int_val, 10))
		case FIELD_DOUBLE:
			rest = append(rest, f.key+"="+strconv.FormatFloat(f.value.double_val, 'g', -1, 64))
		case FIELD_STRING:
			rest = append(rest, f.key+"="+f.value.string_val)
		case FIELD_ARRAY:
			rest = append(rest, f.key+"["+strconv.Itoa(f.value.elem_count)+"]")
		}
	}

	var line = strings.Join([]string{
		ev.received_at.UTC().Format(time.RFC3339),
		strconv.Itoa(ev.channel),
		strconv.FormatFloat(float64(ev.channel_freq_hz), 'f', 0, 32),
		csv_quote(model),
		rssi,
		csv_quote(strings.Join(rest, " ")),
	}, ",")

	if _, err := fmt.Fprintln(e.fp, line); err != nil {
		e.logger.Error("write failed", "err", err)
	}
}

func (e *event_log_t) rotate(now time.Time) {

	var fname, err = strftime.Format(eventlog_daily_pattern, now)
	if err != nil {
		e.logger.Error("bad strftime pattern", "err", err)

		return
	}

	if fname == e.open_fname && e.fp != nil {
		return
	}

	if e.fp != nil {
		e.fp.Close() //nolint:errcheck,gosec
		e.fp = nil
	}

	var full = filepath.Join(e.path, fname)
	var fp, openErr = os.OpenFile(full, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if openErr != nil {
		e.logger.Error("open failed", "path", full, "err", openErr)

		return
	}

	e.fp = fp
	e.open_fname = fname
	e.write_header_if_new()
}

func (e *event_log_t) write_header_if_new() {

	var st, err = e.fp.Stat()
	if err == nil && st.Size() == 0 {
		fmt.Fprintln(e.fp, strings.Join(eventlog_columns, ",")) //nolint:errcheck
	}
}

func (e *event_log_t) close() {

	if e.fp != nil {
		e.fp.Close() //nolint:errcheck,gosec
		e.fp = nil
	}
}

func csv_quote(s string) string {

	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}

	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
