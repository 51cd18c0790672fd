// Package main hosts the r2c CLI entrypoint and command graph.
//
// "r2c batch" registers every new publication since the stored watermark;
// "r2c single" registers one publication under an explicit DOI suffix after
// confirmation. The remaining commands inspect local state: the ledger, the
// run journal, the watermark and the configuration.
//
// Commands resolve configuration once through commandContext and hand the
// heavy lifting to internal/workflow.
package main
