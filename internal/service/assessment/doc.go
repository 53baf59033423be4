// Package assessment implements the adaptive session controller: a state
// machine composing the ability estimator, item selector and termination
// policy into one test session per examinee and pool scope.
//
// Sessions move INITIALIZED -> IN_PROGRESS -> TERMINATED, with exactly
// one item in flight at a time. The controller owns the response history,
// commits ability updates only after a successful grade result, and
// publishes a completion event when a session terminates.
package assessment
