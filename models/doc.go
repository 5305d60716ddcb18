// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, domain and error types.

# Domain Types

  - User: an admin or verifier with a bcrypt password hash
  - Voter: a registered voter (national id, voter id, ward, phone)
  - Ward, Candidate, Election
  - TallyEntry and Tally: per-ward vote rows
  - WardContext: what a verified voter carries into the booth
  - Choice: one numbered line of the ballot

# Errors

Error carries an ErrorKind; constructors exist for each kind:

	models.ValidationError("ward_number is required")
	models.ConflictError("voter has already voted")
	models.InvalidSelectionError(ordinal)

KindOf and IsKind inspect wrapped errors.

# Constants

	RoleAdmin, RoleVerifier
	StatusUpcoming, StatusOngoing, StatusCompleted
	NOTAName, NOTAParty, NOTACandidateID
*/
package models
