// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections, schema migrations and the SQL store.

# Connecting

Open accepts "sqlite" (modernc.org/sqlite, the default) or "postgres"
(lib/pq) and retries the initial ping:

	conn, err := db.Open(db.TypeSQLite, "wardvote.db")

# Schema Creation

CreateSchema applies the embedded golang-migrate migrations for the chosen
database type:

	if err := db.CreateSchema(conn, db.TypeSQLite); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times; an up-to-date schema is not an error.

# Tables

  - kv_entry: named values ("voters", "ward_number")
  - tally: per-ward vote count per candidate, plus one NOTA row per ward
  - ballot: one receipt per cast vote; the choice is not recorded

# Store

Store implements store.KV and store.Tally. Queries are written with ?
placeholders and rebound to $N for postgres. RecordBallot increments the
tally and inserts the receipt in one transaction.
*/
package db
