// Package pipeline downloads the images of a work and converts them to a
// target format, retrying failures in whole passes.
//
// # Flow
//
//	Normalize -> per job: existence gate -> fetch -> transcode
//	          -> failed subset -> wait RetryDelay -> next pass
//
// The first pass covers every job; a job whose destination already exists
// is skipped there unless Force is set, and never fetched. Each later pass
// covers exactly the jobs that failed in the previous one, until a pass has
// no failures or MaxRetries passes have been retried. With MaxRetries = r a
// job is attempted at most r+1 times.
//
// # Guarantees
//
// After Run returns, every job either has a decodable image in the target
// format at its destination or has nothing there and is listed in
// Result.Failed. A failed job's destination is removed before the failure
// is recorded, and output is written through a pending file, so an
// interrupted run never leaves a file that a later run would skip.
//
// # Concurrency
//
// Workers defaults to 1, which processes jobs strictly one after another.
// With more workers fetches overlap, but progress events are still
// delivered in job order and the resulting directory is the same.
//
// # Errors
//
// Run returns an error wrapping [ErrConfig] or [ErrFilesystem] only when
// the run cannot start. Per-job failures ([ErrNetwork], [ErrTranscode])
// are data in Result.Failed, not errors.
package pipeline
