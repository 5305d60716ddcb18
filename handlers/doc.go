// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the wardvote API.

# Handler Types

Each handler is a struct over the components it drives:

  - AuthHandler: admin and verifier login with a one-time code
  - VoterHandler: voter registration and desk verification
  - BallotHandler: the booth, the ballot and vote casting
  - AdminHandler: results, CSV export, candidate and ward catalog
  - ElectionHandler: election status

Handlers are created via constructor functions:

	ballotHandler := handlers.NewBallotHandler(recorder, tokens)

# Login Flow

	POST   /auth/login              → Login (returns flow_id)
	POST   /auth/login/{flow}/otp   → SubmitCode (returns session token)
	POST   /auth/login/{flow}/resend → Resend (after the 60 s countdown)
	DELETE /auth/login/{flow}       → Abandon

# Voting Flow

A verifier looks up the voter, the voter reads back the code sent to their
phone, and the granted response carries a one-shot ballot token:

	POST /verify            → Verify
	POST /verify/{flow}/otp → SubmitCode (returns ballot_token)
	GET  /ballot            → GetBallot
	POST /ballot            → CastVote

Ballot operations require the X-Ballot-Token header. A token is spent by a
recorded vote or a conflict; an invalid selection leaves it usable.

# Errors

Domain errors are mapped to status codes by middleware.WriteError:
validation 400, auth 401, not found 404, conflict 409, invalid selection
422 and cooldown 429.
*/
package handlers
