// Package config defines configuration structures for the pageslurp CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (PAGESLURP_ prefix, optionally from a .env file)
//   - YAML configuration file
//
// # File Format
//
//	output_dir: pageslurp
//	format: webp
//	workers: 1
//	progress: bar
//	fetch:
//	  timeout: 10s
//	  max_size: 64MB
//	retry:
//	  attempts: 3
//	  delay: 3s
//	publish:
//	  bucket: s3://my-bucket
package config
