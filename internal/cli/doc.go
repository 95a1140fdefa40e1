// Package cli implements the command-line interface for pyladies-meetup.
//
// The cli package provides the Cobra-based CLI with two commands: getdata,
// which runs a collection pass against the Meetup API and reports a run
// summary (text/JSON), and growth, which summarizes member growth from the
// files a previous run wrote (text table/JSON/CSV). It coordinates the config,
// collector, storage and growth packages.
package cli
