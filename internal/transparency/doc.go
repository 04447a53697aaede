// Package transparency makes a run visible to the user.
//
// Pipelines and the engine emit Events describing each step (analysis,
// generation, critique scores, verification) to a Sink. Faults from the
// chat transport are turned into ClassifiedErrors so callers can decide
// whether to degrade, retry, or stop, and can show remediation hints.
package transparency
