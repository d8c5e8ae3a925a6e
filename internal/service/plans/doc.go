// Package plans implements the receive-plan lifecycle and container
// assignment rules.
//
// States:
//   - scheduled -> in_progress -> done | pending
//   - in_progress -> scheduled (cancel, only while every container is
//     still waiting)
//
// Transition guards are pure functions of the execution summary
// recomputed from the plan's assignments on every read; no enablement
// flag is stored. Pending has no further engine transition.
//
// Concurrency:
//   - Mutations for one plan are serialized through the Coordinator's
//     per-plan lock; plans do not block each other. This is what keeps
//     the "one active assignment per container" and "a live plan never
//     drops to zero containers" invariants race-free.
//   - The Coordinator also tracks removals the store has accepted but a
//     subsequent read may not reflect yet; the last-container check
//     uses the effective count (stored active count minus unconfirmed
//     removals).
//
// Atomicity of multi-entity writes (create with containers, cascade
// delete) comes from the caller: handlers construct the repositories
// over one *sql.Tx and commit after the service returns.
package plans
