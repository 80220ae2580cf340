// Package runner starts webscout runs.
//
// A Runner owns the collaborators shared by every agent of a run (model,
// browser page, artifact store, logger) and creates one RunContext per
// goal. The brain agent is the root of the tree; navigator and extractor
// children are spawned through delegation tools as the brain decides.
//
// FromConfig builds a Runner from a loaded config.Config, launching the
// playwright session and picking the model provider and artifact backend.
// Tests construct Runners directly with a scripted model and a fake page.
package runner
