// Package irt implements the item response theory models and ability
// estimation used by the adaptive assessment engine. It supports the
// Rasch, two-parameter and three-parameter logistic models and performs
// one-step maximum-likelihood ability updates with Fisher information
// based uncertainty tracking.
//
// All functions in this package are pure: estimation state lives in the
// domain.AbilityEstimate values passed in and returned, never in the
// package itself.
package irt
