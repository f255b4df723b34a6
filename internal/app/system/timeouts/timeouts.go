// Package timeouts centralizes the context deadlines handlers put on store
// and filesystem work, so individual handlers don't invent their own numbers.
package timeouts

import "time"

const (
	ping  = 2 * time.Second
	short = 5 * time.Second
	med   = 10 * time.Second
	long  = 30 * time.Second
	batch = 60 * time.Second
)

// Ping is for connectivity checks (health endpoint).
func Ping() time.Duration { return ping }

// Short is for single-document reads and writes.
func Short() time.Duration { return short }

// Medium is for list queries and simple aggregations.
func Medium() time.Duration { return med }

// Long is for multi-collection work such as the user delete cascade.
func Long() time.Duration { return long }

// Batch is for bulk transactional operations.
func Batch() time.Duration { return batch }
