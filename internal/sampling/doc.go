// Package sampling produces record collections for new ensemble members
// from statistical distributions. A parameter group binds one distribution
// configuration; sampling an ensemble draws once per member in index
// order, so a seeded distribution reproduces the same collection
// bit-for-bit on every run.
package sampling
