// Package viz draws a running layout in the terminal.
//
// [Model] is a Bubble Tea program that drives a layout session one tick per
// frame and renders the graph on a Braille [Canvas] next to convergence
// charts.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart from the initial positions
//	Tab   - Select a parameter
//	Up/K  - Increase the selected parameter (+10%)
//	Down/J - Decrease the selected parameter (-10%)
//	B     - Toggle Barnes-Hut
//	L     - Toggle LinLog mode
//	?     - Show help overlay
//	Q     - Quit
//
// Parameter changes restart the layout from the current positions.
package viz
