package recurrence

import (
	"fmt"

	"github.com/lnquy/cron"
)

// Describer turns a cron string into English.
type Describer interface {
	Describe(expr string) (string, error)
}

// Describe asks d for a description of expr, falling back to expr itself
// when d is nil, fails, or returns nothing.
func Describe(d Describer, expr string) string {
	if d == nil || expr == "" {
		return expr
	}
	desc, err := d.Describe(expr)
	if err != nil || desc == "" {
		return expr
	}
	return desc
}

// CronDescriber formats expressions with github.com/lnquy/cron.
type CronDescriber struct {
	desc *cron.ExpressionDescriptor
}

func NewCronDescriber() (*CronDescriber, error) {
	d, err := cron.NewDescriptor()
	if err != nil {
		return nil, fmt.Errorf("create cron descriptor: %w", err)
	}
	return &CronDescriber{desc: d}, nil
}

func (c *CronDescriber) Describe(expr string) (desc string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("describe %q: %v", expr, r)
		}
	}()
	return c.desc.ToDescription(expr, cron.Locale_en)
}
