/*
Package domain contains the core domain models of the onboarding engine.

It defines the entities the conversation state machine works on: stages, the
session context supplied by the host, conversation turns, the onboarding state
snapshot and the side effects the engine asks the host to run. The package is
pure and free of I/O, following the Hexagonal Architecture used across the
module.

# Key Entities

  - Stage: One ordered phase of the onboarding flow, with an applicability predicate.
  - SessionContext: Who is onboarding (role, organization, credential). Read-only.
  - Turn: One entry in the append-only conversation log.
  - State: Runtime snapshot of a session (current stage, per-stage data, pending effects, turns).
  - Action: A closed set of user intents parsed from action tokens or free text.
  - Effect / Settlement: A side effect scheduled by a handler and its eventual outcome.
*/
package domain
