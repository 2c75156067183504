package malamute

/*------------------------------------------------------------------
 *
 * Purpose:     One-time selection of the FIR kernel variants for
 *		this machine.
 *
 * Description:	golang.org/x/sys/cpu reports what the CPU *and* the
 *		operating system together support: on x86-64 it checks
 *		OSXSAVE and the XCR0 state-save bits (1-2 for YMM,
 *		5-7 for ZMM), so a CPU with AVX-512 under an OS that
 *		does not save ZMM state correctly falls back.
 *
 *		Selection runs at most once even when several streams
 *		initialize concurrently.  A small compare-and-swap
 *		state machine guards it; losers spin until the winner
 *		lands on done or failed.  sync.Once would also do, but
 *		it cannot represent the failed state that later init
 *		calls must observe.
 *
 *----------------------------------------------------------------*/

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

type isa_class_t int

const (
	ISA_BASELINE isa_class_t = iota /* SSE2 on x86-64, plain scalar elsewhere */
	ISA_AVX2
	ISA_AVX512
	ISA_NEON
	ISA_SVE
)

func (c isa_class_t) String() string {
	switch c {
	case ISA_AVX2:
		return "avx2"
	case ISA_AVX512:
		return "avx512"
	case ISA_NEON:
		return "neon"
	case ISA_SVE:
		return "sve"
	default:
		return "baseline"
	}
}

const (
	dispatch_not_started = int32(iota)
	dispatch_in_progress
	dispatch_done
	dispatch_failed
)

var dispatch_state atomic.Int32

var selected_isa isa_class_t

/*------------------------------------------------------------------
 *
 * Name:        isa_dispatch_init
 *
 * Purpose:     Select the FIR kernels once, before first use.
 *
 * Returns:	nil once the kernels are installed.
 *		ErrOneTimeInit if a previous attempt failed; later
 *		callers observe that and fail fast.
 *
 *----------------------------------------------------------------*/

func isa_dispatch_init() error {

	for {
		switch dispatch_state.Load() {
		case dispatch_done:
			return nil
		case dispatch_failed:
			return ErrOneTimeInit
		case dispatch_not_started:
			if !dispatch_state.CompareAndSwap(dispatch_not_started, dispatch_in_progress) {
				continue /* lost the race, reread */
			}

			selected_isa = isa_detect()
			isa_install(selected_isa)

			dispatch_state.Store(dispatch_done)

			return nil
		case dispatch_in_progress:
			runtime.Gosched()
		}
	}
}

func isa_detect() isa_class_t {

	switch runtime.GOARCH {
	case "amd64":
		/* x/sys/cpu has already folded in OS support via XGETBV. */
		if cpu.X86.HasAVX512F && cpu.X86.HasAVX512VL && cpu.X86.HasFMA {
			return ISA_AVX512
		}
		if cpu.X86.HasAVX2 && cpu.X86.HasFMA {
			return ISA_AVX2
		}

		return ISA_BASELINE /* SSE2 is architectural on amd64 */

	case "arm64":
		if cpu.ARM64.HasSVE {
			return ISA_SVE
		}
		if cpu.ARM64.HasASIMD {
			return ISA_NEON
		}

		return ISA_BASELINE

	default:
		return ISA_BASELINE
	}
}

func isa_install(class isa_class_t) {

	switch class {
	case ISA_AVX512, ISA_SVE:
		fir_iq = fir_iq_x8
		fir_real = fir_real_x8
	case ISA_AVX2, ISA_NEON:
		fir_iq = fir_iq_x4
		fir_real = fir_real_x4
	default:
		fir_iq = fir_iq_baseline
		fir_real = fir_real_baseline
	}
}

/* For the status line. */

func isa_selected() isa_class_t {
	return selected_isa
}
