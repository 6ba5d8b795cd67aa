// Package authz implements the relationship-derived authorization model:
// a single-principal identity context, a project relationship resolver and
// a pure decision engine evaluated on every resource access.
//
// Core concepts:
//
//   - Principal: A single authorization identity per request (System/User/Test).
//     Set via NewSystemContext, NewUserContext, NewTestContext, or WithPrincipal.
//
//   - Relationship: What a user is to a project: owner, member or none.
//     Resolved from the ownership edge and the membership roster, never stored
//     on tasks or comments.
//
//   - Decision: Engine.Decide maps (principal, action, resource) to allow or
//     deny through a fixed first-match policy table. Every denial is uniform:
//     callers translate read denials to not-found.
//
//   - Visibility: VisibleProjects derives the set of project IDs a principal
//     may read, for push-down into list queries. Filtering a collection with
//     it is equivalent to per-item read decisions.
//
// Usage rules:
//
//  1. Never query across projects without applying VisibleProjects.
//  2. Prefer RunWithSystemBypass closures to limit system scope.
//  3. All bypass reasons must be stable strings for audit aggregation.
//  4. Background tasks must declare System principal via NewSystemContext.
package authz
