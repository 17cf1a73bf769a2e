// Package cron runs periodic background jobs, such as removing photo work
// files that outlived their message.
package cron

import (
	"context"

	"github.com/robfig/cron/v3"
)

// Job is a named unit of periodic work.
type Job interface {
	Name() string
	// Schedule is a 5-field expression or a descriptor like "@hourly".
	Schedule() string
	// Run does one pass. ctx is cancelled when the scheduler stops.
	Run(ctx context.Context) error
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether expr would be accepted by Scheduler.
func ValidateSchedule(expr string) error {
	_, err := parser.Parse(expr)
	return err
}
