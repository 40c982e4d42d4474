package service

import (
	"fmt"
	"regexp"

	"github.com/opencenters/catalog-api/internal/models"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
)

const (
	maxShortField = 200
	maxLongField  = 4000
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// fieldRule checks one whitelisted delta field and applies it. Rules
// run in declaration order; the first failing field aborts the whole
// update before anything is applied.
type fieldRule[T any] struct {
	key   string
	check func(value string) error
	apply func(target *T, value string)
}

func maxLen(field string, limit int) func(string) error {
	return func(value string) error {
		if len(value) > limit {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s too long (max %d characters)", field, limit))
		}
		return nil
	}
}

func emptyOrPattern(field string, pattern *regexp.Regexp, hint string) func(string) error {
	return func(value string) error {
		if value != "" && !pattern.MatchString(value) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s, expected %s", field, hint))
		}
		return nil
	}
}

var eventRules = []fieldRule[models.FullEvent]{
	{"title", maxLen("title", maxShortField), func(e *models.FullEvent, v string) { e.Title = v }},
	{"startDate", emptyOrPattern("startDate", datePattern, "YYYY-MM-DD"), func(e *models.FullEvent, v string) { e.StartDate = v }},
	{"endDate", emptyOrPattern("endDate", datePattern, "YYYY-MM-DD"), func(e *models.FullEvent, v string) { e.EndDate = v }},
	{"startTime", emptyOrPattern("startTime", timePattern, "HH:MM"), func(e *models.FullEvent, v string) { e.StartTime = v }},
	{"address", maxLen("address", maxShortField), func(e *models.FullEvent, v string) { e.Address = v }},
	{"name", maxLen("name", maxShortField), func(e *models.FullEvent, v string) { e.Name = v }},
	{"description", maxLen("description", maxLongField), func(e *models.FullEvent, v string) { e.Description = v }},
}

var centerRules = []fieldRule[models.Center]{
	{"name", maxLen("name", maxShortField), func(c *models.Center, v string) { c.Name = v }},
	{"address", maxLen("address", maxShortField), func(c *models.Center, v string) { c.Address = v }},
	{"program", maxLen("program", maxLongField), func(c *models.Center, v string) { c.Program = v }},
	{"about", maxLen("about", maxLongField), func(c *models.Center, v string) { c.About = v }},
}

func applyRules[T any](target *T, delta map[string]string, rules []fieldRule[T]) error {
	// Validate everything first so a failure leaves the target
	// untouched.
	for _, rule := range rules {
		value, ok := delta[rule.key]
		if !ok {
			continue
		}
		if err := rule.check(value); err != nil {
			return err
		}
	}
	for _, rule := range rules {
		if value, ok := delta[rule.key]; ok {
			rule.apply(target, value)
		}
	}
	return nil
}

// ApplyEventChanges merges a whitelisted partial update into the event.
// The owning center is immutable; unrecognized keys are ignored. On
// error the target is unchanged.
func ApplyEventChanges(target *models.FullEvent, delta map[string]string) error {
	if requested, ok := delta["center"]; ok && requested != target.Center {
		return appErrors.Clone(appErrors.ErrValidation, "center cannot be changed")
	}
	return applyRules(target, delta, eventRules)
}

// ApplyCenterChanges merges a whitelisted partial update into the
// center. Country and the user roster are not updatable through this
// path; deltas naming them are ignored.
func ApplyCenterChanges(target *models.Center, delta map[string]string) error {
	return applyRules(target, delta, centerRules)
}
