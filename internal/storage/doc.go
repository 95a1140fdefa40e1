// Package storage provides JSON-based persistence for collected Meetup data.
//
// Every PyLadies chapter gets its own directory under the output directory,
// named after the chapter's Meetup group with punctuation and whitespace removed
// (PyLadies San Francisco becomes PyLadiesSanFrancisco). A chapter directory
// holds pyladies_group.json, pyladies_members.json and one <Name>.json member
// file per nearby Python user group. Files are overwritten on every run.
package storage
