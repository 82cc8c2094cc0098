// Package work defines the data model of a download run.
//
// A [Work] is a titled, ordered list of [ImageRef] values produced by a
// source resolver. [Normalize] turns it into [Job] values, one per image,
// each with a stable zero-padded filename and a deterministic destination:
//
//	{outputDir}/{title}/{filename}.{ext}
//
// Bare references are numbered by position (1-based) and padded to the
// width of the total image count, so 12 images produce 01 through 12.
// Descriptor references carry their own index and filename and pass
// through unchanged.
package work
