// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides credential checks and token generation utilities.

# Passwords

Seed passwords are hashed with bcrypt when the directory is loaded and are
only ever compared through bcrypt:

	hash, err := auth.HashPassword(plain, 0) // 0 = bcrypt.DefaultCost
	err = auth.CheckPassword(hash, candidate)

# Challenge Codes

One-time codes are six decimal digits drawn from crypto/rand:

	code, err := auth.GenerateChallengeCode() // e.g. "004217"

# Session Tokens

A successful login yields an HS256 JWT carrying the user ID (sub), role and
display name:

	token, err := auth.IssueSessionToken(secret, user.ID, user.Role, user.FullName, now, ttl)
	claims, err := auth.ParseSessionToken(secret, token)

ParseSessionToken returns ErrInvalidToken for any signature, issuer or
expiry failure.

# Ballot Tokens

Random 24-byte (192-bit) secrets handed to a voter after verification:

	token, err := auth.GenerateBallotToken()

# ID Generation

Random hex IDs, used as request IDs in the request log:

	id, err := auth.GenerateID(8)  // 16 hex characters

# IP Hashing

For privacy-preserving rate-limit keys:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
