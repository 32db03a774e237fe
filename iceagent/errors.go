package iceagent

import "errors"

var errNotStarted = errors.New("iceagent: agent not started")
