// Command ert is the CLI over the record engine: it loads files into
// record collections, samples parameter distributions, transmits the
// results to the configured storage backend, and resolves stored records
// back to URLs or files. All engine logic lives in the internal packages;
// this binary is argument parsing and output formatting only.
package main
