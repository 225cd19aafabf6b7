package domain

import "errors"

var (
	ErrNoSession         = errors.New("no session found for room")
	ErrNoActiveBroadcast = errors.New("no active broadcast session found")
	ErrNoBroadcastURL    = errors.New("no broadcast url found")
	ErrRenderNotFound    = errors.New("render not found")
	ErrBroadcastExists   = errors.New("broadcast record already exists for session")
)
