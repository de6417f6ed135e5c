// Package indexer builds the corpus file from a Go source tree.
//
// # Basic Usage
//
//	idx := indexer.New(indexer.Config{Logger: log})
//
//	fragments, stats, err := idx.Extract(ctx, "/path/to/project", indexer.Config{})
//	if err != nil {
//	    return err
//	}
//	if err := indexer.WriteCorpus("knowledge_base.jsonl", fragments); err != nil {
//	    return err
//	}
//
//	fmt.Printf("%d fragments from %d files in %v\n",
//	    stats.FragmentsCreated, stats.FilesExtracted, stats.Duration)
//
// # Pipeline
//
//  1. Discovery: walk the tree for .go files, skipping hidden directories,
//     testdata, vendor (unless IncludeVendor) and tests (unless
//     IncludeTests)
//  2. Parse & Chunk: files are parsed concurrently on a bounded worker
//     pool; each declaration becomes one fragment
//  3. Assemble: fragments are concatenated in file path order and
//     numbered from 1, so the same tree always yields the same ids
//
// # Error Handling
//
// A file that cannot be read or that has a syntax error contributes zero
// fragments. It is counted in Statistics and logged at Warn; the walk
// continues. Only a missing root or a cancelled context fails Extract.
package indexer
