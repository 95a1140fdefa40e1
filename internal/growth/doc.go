// Package growth turns persisted member rosters into month-by-month join counts.
//
// It reads a chapter directory written by the collector and reports, for the
// PyLadies group and every nearby Python user group, how many members joined in
// each calendar month (UTC). Members without a join date are counted separately.
package growth
