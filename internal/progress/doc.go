// Package progress defines the event contract between a download run and
// whatever displays it, plus the stock displays.
//
// A run reports every job exactly once as either skipped, or started and
// then succeeded or failed, followed by a single [Summary]. Events arrive
// in job order from one goroutine. Reporters that also implement
// [RunReporter] or [RetryReporter] learn when the run starts and when a
// retry pass is scheduled.
//
// # Reporters
//
//   - [Bar]: a progress bar redrawn on an interval, with byte rate and ETA
//   - [Spinner]: a bubbletea spinner showing the page in flight
//   - [Log]: one structured log record per event
//   - [Nop]: discards everything
//
// # Output Format (Bar)
//
//	[pageslurp] Downloading 24 images of Some Title
//	[pageslurp] Images will be converted to jpeg
//	  ├████████████████████                    ┤ 50.0% [12/24] 1.20 MB/s
//	[pageslurp] Done: 23 saved, 0 skipped, 1 failed in 12s
package progress
