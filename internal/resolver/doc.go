// Package resolver turns a source location into a work.Work.
//
// Sources are manifest documents in YAML or JSON:
//
//	site: example
//	title: demo
//	source: https://example.com/demo
//	images:
//	  - https://cdn.example.com/a.png
//	  - index: 1
//	    filename: cover
//	    url: https://cdn.example.com/cover.png
//
// A manifest may be a local path, a file:// URL or an http(s):// URL.
// A manifest without images resolves to nil.
package resolver
