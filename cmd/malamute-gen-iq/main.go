package main

/*------------------------------------------------------------------
 *
 * Purpose:   	Quick tool for generating CF32 test captures.
 *
 *---------------------------------------------------------------*/

import (
	malamute "github.com/doismellburning/malamute/src"
)

func main() {
	malamute.GenIQMain()
}
