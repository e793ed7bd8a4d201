// Package viz is the terminal viewer for a running simulation.
//
// The viewer never touches the integrator. It polls the latest snapshot from
// an [exchange.Exchange] about every 16 ms, draws the bodies on a braille
// [Canvas] and forwards pause and reseed requests back through the exchange.
//
// # Key Bindings
//
//	Space - Pause/Resume the integrator
//	R     - Reseed with a random seed
//	+ / - - Reseed with the next/previous seed
//	T     - Toggle the info panel
//	Z / X - Zoom in/out
//	Arrows/HJKL - Pan
//	0     - Reset the view
//	P     - Toggle trails
//	C     - Cycle color themes
//	Q     - Quit
package viz
