package main

/*------------------------------------------------------------------
 *
 * Purpose:   	Wideband ISM band receiver.
 *
 *		Splits one wideband IQ stream into overlapping
 *		narrowband channels, rate-matches each one for its
 *		decoder, and reports de-duplicated decode events.
 *
 *---------------------------------------------------------------*/

import (
	malamute "github.com/doismellburning/malamute/src"
)

func main() {
	malamute.MalamuteMain()
}
