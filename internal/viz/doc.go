// Package viz renders datasets and export results in the terminal.
//
//   - [Browser]: Bubble Tea view of the phenomenon → property-set → property tree
//   - [PlotSeries], [PlotAgents]: ASCII charts of agent time series
//   - [Alert]: styled error output for the CLI
//
// # Key Bindings
//
//	↑/k ↓/j  - Move the cursor
//	Enter    - Open the selected phenomenon or property set
//	Esc      - Go back up one level
//	Q        - Quit
package viz
