// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package control provides runtime counters and introspection surfaces
// for the reactor: ticks run, tasks executed, readiness events and
// signals dispatched, active watches.
package control
