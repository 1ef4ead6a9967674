// Package health provides the built-in code health analyzers.
//
// Each monitor walks the target project, collects facts (file sizes,
// leftover development artifacts, tracked files that belong in .gitignore,
// missing project documentation) and turns them into an Analyzer Report:
// a ConcernSet bucketed by severity plus a 0..100 score for the monitor's
// domain.
//
// Monitors attach fix suggestions where the remediation is mechanical:
//
//	cruft file         -> delete
//	tracked artifact   -> command: git rm --cached -- <path>
//	missing README.md  -> create
//
// Judgment calls (is this large file justified?) are left to humans: those
// issues carry no fix and land in manual review.
//
// # Scoring
//
// A monitor starts at 100 and deducts per issue by bucket (see Penalties),
// never going below 0.
package health
