// Package domain holds the core entities of the assessment engine: items
// with their calibration parameters, ability estimates, adaptive session
// state, spaced-repetition learning records and examinees. It depends on
// no infrastructure or delivery mechanism.
package domain
