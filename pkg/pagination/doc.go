// Package pagination walks the pages of an iNaturalist search endpoint.
//
// iNaturalist search responses carry total_results, page and per_page. Pages
// are fetched one after another, starting at page 1, until
// page*per_page >= total_results:
//
//	walker := pagination.NewWalker(fetcher, pagination.DefaultConfig(), logger)
//	summary, err := walker.Walk(ctx)
//
// The walker also stops on an empty page or a non-positive per_page, so a
// malformed response cannot keep it fetching forever, and after MaxPages
// pages when a limit is configured.
package pagination
