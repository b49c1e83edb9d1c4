package main

import (
	"time"

	"github.com/benjamonnguyen/studyplan"
)

type BoardMsg struct {
	board     studyplan.Board
	fetchedAt time.Time
	offline   bool
}

// DoneMsg follows a successful mutation; the board is refetched after it.
type DoneMsg struct {
	alert string
}

// AlertMsg is shown without refetching.
type AlertMsg struct {
	alert string
	color string
}

type ErrorMsg struct {
	err error
}
