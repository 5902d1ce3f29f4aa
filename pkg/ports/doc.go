/*
Package ports defines the driven and driving ports (interfaces) of the onboarding engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends, lock providers and backend APIs.

# Key Interfaces

  - StateStore: Responsible for persisting and loading session State.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - Gateway: Sends invitations and submits bulk-import files to the backend API.
  - SessionEngine: The host-facing surface consumed by the HTTP and MCP adapters.
*/
package ports
