// Package mirror copies downloaded works into cloud storage.
//
// Storage is reached through gocloud.dev/blob, so any bucket URL with a
// registered driver works (mem://, file://, s3://, gs://).
//
// # Storage Layout
//
//	{bucket}/{title}/1.jpeg
//	{bucket}/{title}/2.jpeg
//	{bucket}/{title}/manifest.json
//
// The manifest is written last. A work without a manifest was never
// published completely.
//
// # Manifest Format
//
//	{
//	  "title": "demo",
//	  "format": "jpeg",
//	  "pages": [
//	    {"object": "1.jpeg", "size": 48213, "checksum": "9f2c...", "location": "https://..."}
//	  ],
//	  "metadata": {"run_id": "..."},
//	  "completed_at": "2024-01-15T10:30:00Z"
//	}
package mirror
