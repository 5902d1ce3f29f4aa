/*
Package onboard is a guided setup conversation engine. It walks a new user through configuring an organization one stage at a time (company profile, team, equipment, parts, engineers, installations) as a chat, and schedules the backend side effects each stage needs.

The engine owns the conversation: it decides which prompt comes next, which choices are offered, and how the cursor moves between stages. The host owns the I/O: it renders turns, collects clicks, typed text and files, and supplies a Gateway that talks to the backend API.

# Concept

Every user event is processed against a snapshot of the session under a per-session lock, so a failed event never leaves a half-applied state. Side effects (invitations, import validation, import commit) are scheduled by the conversation, executed by the Engine in the background and settled back into the same session. While an effect is pending its stage is marked in-flight and a second one is refused.

# Key Features

  - Role-aware catalog: stages are filtered by the actor role; an organization admin never sees the company profile stage.
  - Partial success: batch invitations report K of N, list the failures and offer a retry of just those.
  - Free navigation: the user may jump to any applicable stage; late settlements never move the cursor.
  - Durable sessions: states persist through a StateStore (memory, file or Redis) and may be encrypted at rest.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/onboard"
		"github.com/aretw0/onboard/pkg/domain"
		"github.com/aretw0/onboard/pkg/gateway"
	)

	func main() {
		eng := onboard.New(onboard.WithGateway(gateway.New("https://api.example.com")))
		defer eng.Close()

		ctx := context.Background()
		sc := domain.SessionContext{
			ActorRole:       domain.RoleOrgAdmin,
			OrganizationID:  "org-1",
			IsAuthenticated: true,
			AuthToken:       "token",
		}

		view, err := eng.Start(ctx, "session-123", sc)
		if err != nil {
			log.Fatal(err)
		}

		// Type team members, then wait for the invitations to settle.
		if _, err := eng.Input(ctx, view.SessionID, "", "Ana, ana@example.com"); err != nil {
			log.Fatal(err)
		}
		eng.Wait()

		view, _ = eng.View(ctx, view.SessionID)
		for _, turn := range view.Turns {
			fmt.Println(turn.Body)
		}
	}
*/
package onboard
