// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package screen names the client screens and the moves allowed between
// them. Handlers report the next screen so a thin client can follow along.
package screen

import "fmt"

type Screen string

const (
	Login             Screen = "login"
	Register          Screen = "register"
	AdminDashboard    Screen = "admin_dashboard"
	VerifierDashboard Screen = "verifier_dashboard"
	Guidelines        Screen = "guidelines"
	VoteSelection     Screen = "vote_selection"
)

// Event drives a transition
type Event string

const (
	OpenRegistration Event = "open_registration"
	Registered       Event = "registered"
	AdminGranted     Event = "admin_granted"
	VerifierGranted  Event = "verifier_granted"
	VoterVerified    Event = "voter_verified"
	Proceed          Event = "proceed"
	VoteCast         Event = "vote_cast"
	Logout           Event = "logout"
)

var transitions = map[Screen]map[Event]Screen{
	Login: {
		OpenRegistration: Register,
		AdminGranted:     AdminDashboard,
		VerifierGranted:  VerifierDashboard,
	},
	Register: {
		Registered: Login,
		Logout:     Login,
	},
	AdminDashboard: {
		Logout: Login,
	},
	VerifierDashboard: {
		VoterVerified: Guidelines,
		Logout:        Login,
	},
	Guidelines: {
		Proceed: VoteSelection,
		Logout:  Login,
	},
	VoteSelection: {
		VoteCast: VerifierDashboard,
		Logout:   Login,
	},
}

// Next returns the screen reached from s on e
func Next(s Screen, e Event) (Screen, error) {
	to, ok := transitions[s][e]
	if !ok {
		return s, fmt.Errorf("no transition from %s on %s", s, e)
	}
	return to, nil
}

// After returns the screen reached from s on e, or s itself when e is not
// allowed there
func After(s Screen, e Event) Screen {
	to, _ := Next(s, e)
	return to
}

// ForRole is the landing screen after a login grant
func ForRole(role string) Screen {
	switch role {
	case "admin":
		return AdminDashboard
	case "verifier":
		return VerifierDashboard
	}
	return Login
}

func (s Screen) Valid() bool {
	_, ok := transitions[s]
	return ok
}
