// Package pkg provides the libraries behind svg2png, a batch converter from
// base64-encoded SVG documents to base64-encoded PNG images.
//
// # Overview
//
// A batch is a JSON object mapping record names to base64 SVG payloads. Every
// record is decoded, checked, rendered and re-encoded independently; a
// failing record never stops the rest of the batch. The pkg directory is
// organized into three areas:
//
//  1. Domain logic: [records], [svg], [render], [convert]
//  2. Orchestration: [pipeline]
//  3. Infrastructure: [cache], [artifacts], [observability], [errors], [buildinfo]
//
// # Architecture
//
// The data flow for one batch:
//
//	JSON object (name → base64 SVG)
//	         ↓
//	    [records] package (ordered load, duplicate keys, indent-4 save)
//	         ↓
//	    [pipeline] package (sequential, task or pool dispatch; failure policy)
//	         ↓
//	    [convert] package (decode → validate → render → encode, per record)
//	         ↓
//	    [render] package (oksvg or rsvg-convert, behind the PNG cache)
//	         ↓
//	JSON object (name → base64 PNG) plus optional <name>.svg / <name>.png
//
// # Quick Start
//
// Convert an in-memory batch:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/svg2png/pkg/convert"
//	    "github.com/matzehuels/svg2png/pkg/pipeline"
//	    "github.com/matzehuels/svg2png/pkg/records"
//	)
//
//	in := records.New()
//	in.Put("logo", base64SVG)
//
//	conv := convert.New(nil, nil, nil, nil, nil) // oksvg, no cache, no side files
//	runner := pipeline.NewRunner(conv, nil)
//	result, err := runner.Execute(context.Background(), in, pipeline.Options{
//	    Strategy:  pipeline.StrategyPool,
//	    Workers:   4,
//	    OnFailure: pipeline.FailureSentinel,
//	})
//
// # Main Packages
//
//   - [records]: ordered JSON object codec for batches
//   - [svg]: the lightweight document checks and intrinsic size parsing
//   - [render]: SVG → PNG backends
//   - [convert]: the per-record conversion with caching and side files
//   - [pipeline]: dispatch strategies, failure policies and batch statistics
//   - [cache]: file and redis caches for rendered PNGs
//   - [artifacts]: per-record side-file storage
//   - [observability]: batch, item and cache hooks
//   - [errors]: coded errors shared by every layer
//
// [records]: https://pkg.go.dev/github.com/matzehuels/svg2png/pkg/records
// [svg]: https://pkg.go.dev/github.com/matzehuels/svg2png/pkg/svg
// [render]: https://pkg.go.dev/github.com/matzehuels/svg2png/pkg/render
// [convert]: https://pkg.go.dev/github.com/matzehuels/svg2png/pkg/convert
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/svg2png/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/svg2png/pkg/cache
// [artifacts]: https://pkg.go.dev/github.com/matzehuels/svg2png/pkg/artifacts
// [observability]: https://pkg.go.dev/github.com/matzehuels/svg2png/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/svg2png/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/svg2png/pkg/buildinfo
package pkg
