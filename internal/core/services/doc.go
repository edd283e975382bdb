// Package services contains the core business logic: corpus profiling,
// prompt synthesis and versioning, query expansion, retrieval and answer
// generation.
//
// Services implement the driving port interfaces and depend only on the
// driven port interfaces, never on concrete adapters.
package services
