// Package collector drives a full data collection run.
//
// A run fetches the PyLadies chapter registry, resolves chapters to Meetup
// groups, and for every group writes the group record, its member roster and
// the rosters of nearby Python user groups to the output directory. Failures
// are isolated to the chapter or nearby group they happen in; they are logged,
// counted in the run Summary, and the run carries on.
package collector
