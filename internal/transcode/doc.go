// Package transcode converts fetched image bytes into a target raster
// format on disk.
//
// Input may be any format registered with the image package: JPEG, PNG and
// GIF from the standard library plus WebP, TIFF and BMP from
// golang.org/x/image. Output is one of [JPEG], [PNG], [WebP] or [TIFF].
//
// [WriteFile] never exposes a partially written destination. Output is
// encoded into a hidden pending file next to the destination and renamed
// into place only once it is complete and non-empty; on any other exit
// the pending file is removed.
package transcode
