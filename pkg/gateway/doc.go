/*
Package gateway talks to the backend API on behalf of the onboarding engine.

It implements ports.Gateway: invitation batches are fanned out one request
per recipient through a bounded worker pool and never abort on individual
failures; bulk imports are submitted as multipart forms, either as a dry run
(validation only) or for real.

Missing organization or credential is detected before any network call and
reported as domain.ErrSideEffectUnreachable.
*/
package gateway
