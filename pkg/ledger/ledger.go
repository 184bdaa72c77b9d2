// Package ledger decides how an observed record changes stored state and
// which field-level change events that produces. It is pure: callers load
// the existing record, reconcile, then persist the result.
package ledger

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"xwatch/pkg/models"
)

// Action is what the store should do with a reconciled record
type Action int

const (
	NoOp Action = iota
	Insert
	Update
)

func (a Action) String() string {
	switch a {
	case Insert:
		return "insert"
	case Update:
		return "update"
	default:
		return "noop"
	}
}

// ProfileResult is the outcome of reconciling one profile observation
type ProfileResult struct {
	Action Action
	// Record is the full state to persist
	Record models.UserProfile
	// PreviousID is the stored key Record replaces; empty on insert
	PreviousID string
	// Changed lists the columns whose stored value moves, including
	// first-population writes that produce no event
	Changed []string
	Events  []models.ChangeEvent
}

// PostResult is the outcome of reconciling one post observation
type PostResult struct {
	Action  Action
	Record  models.Post
	Changed []string
	Events  []models.ChangeEvent
}

// Equivalent compares stored and observed values by their string forms,
// ignoring one trailing ".0" so 3 and 3.0 compare equal.
func Equivalent(a, b string) bool {
	return strings.TrimSuffix(a, ".0") == strings.TrimSuffix(b, ".0")
}

// ComputeDelta is new minus old when both are finite numbers, otherwise the
// signed difference in length measured in code points.
func ComputeDelta(oldValue, newValue string) models.Delta {
	o, okOld := parseFinite(oldValue)
	n, okNew := parseFinite(newValue)
	if okOld && okNew {
		return models.DeltaOf(n - o)
	}
	return models.DeltaOf(float64(utf8.RuneCountInString(newValue) - utf8.RuneCountInString(oldValue)))
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// clearable lists the text fields the site omits from the page when the
// user empties them. Their absence on a rendered profile is a real change;
// for any other field it only means the lookup failed.
var clearable = map[string]bool{
	models.ColBio:       true,
	models.ColLocation:  true,
	models.ColWebsite:   true,
	models.ColBirthDate: true,
}

// present treats empty strings the same as absent values
func present(v string, set bool) bool {
	return set && strings.TrimSpace(v) != ""
}

// ReconcileProfile merges an observed profile into the stored one.
//
// An identity change (handle differing beyond letter case) is recorded
// first. A field that was empty before is written without an event.
// Absent observed fields keep their stored values, except that a clearable
// field missing from a rendered profile (one showing a display name) is
// cleared and logged with an empty new value.
func ReconcileProfile(existing *models.UserProfile, incoming models.UserProfile, now time.Time) ProfileResult {
	if existing == nil {
		return ProfileResult{Action: Insert, Record: incoming}
	}

	merged := *existing
	res := ProfileResult{PreviousID: existing.Handle}
	subjectName := existing.Name.OrElse("")

	if incoming.Handle != "" && !strings.EqualFold(existing.Handle, incoming.Handle) {
		merged.Handle = incoming.Handle
		res.Changed = append(res.Changed, models.ColUserID)
		res.Events = append(res.Events, models.ChangeEvent{
			SubjectID:   incoming.Handle,
			SubjectName: subjectName,
			Field:       models.ColUserID,
			OldValue:    existing.Handle,
			NewValue:    incoming.Handle,
			Delta:       ComputeDelta(existing.Handle, incoming.Handle),
			Timestamp:   now,
		})
	}

	name, named := incoming.Name.Get()
	rendered := present(name, named)

	current := merged.Fields()
	observed := incoming.Fields()
	for i, obs := range observed {
		oldValue, hadOld := current[i].Text()
		hadOld = present(oldValue, hadOld)

		newValue, ok := obs.Text()
		if !present(newValue, ok) {
			if !hadOld || !rendered || !clearable[obs.Name] {
				continue
			}
			newValue = ""
		} else if hadOld && Equivalent(oldValue, newValue) {
			continue
		}

		current[i].CopyFrom(obs)
		res.Changed = append(res.Changed, obs.Name)
		if !hadOld {
			continue
		}
		res.Events = append(res.Events, models.ChangeEvent{
			SubjectID:   merged.Handle,
			SubjectName: subjectName,
			Field:       obs.Name,
			OldValue:    oldValue,
			NewValue:    newValue,
			Delta:       ComputeDelta(oldValue, newValue),
			Timestamp:   now,
		})
	}

	res.Record = merged
	if len(res.Changed) > 0 {
		res.Action = Update
	}
	return res
}

// ReconcilePost merges a re-observed post. Only content and like count
// are eligible; author fields keep their stored values.
func ReconcilePost(existing *models.Post, incoming models.Post, now time.Time) PostResult {
	if existing == nil {
		return PostResult{Action: Insert, Record: incoming}
	}

	merged := *existing
	res := PostResult{}

	amend := func(field, oldValue, newValue string, apply func()) {
		if strings.TrimSpace(newValue) == "" || Equivalent(oldValue, newValue) {
			return
		}
		apply()
		res.Changed = append(res.Changed, field)
		if strings.TrimSpace(oldValue) == "" {
			return
		}
		res.Events = append(res.Events, models.ChangeEvent{
			SubjectID:   existing.PostID,
			SubjectName: existing.AuthorHandle,
			Field:       field,
			OldValue:    oldValue,
			NewValue:    newValue,
			Delta:       ComputeDelta(oldValue, newValue),
			Timestamp:   now,
		})
	}

	amend(models.ColContent, existing.Content, incoming.Content, func() { merged.Content = incoming.Content })
	// a zero counter is indistinguishable from an unreadable one
	observedLikes := ""
	if incoming.Likes > 0 {
		observedLikes = strconv.FormatInt(incoming.Likes, 10)
	}
	amend(models.ColLikes, strconv.FormatInt(existing.Likes, 10), observedLikes,
		func() { merged.Likes = incoming.Likes })

	res.Record = merged
	if len(res.Changed) > 0 {
		res.Action = Update
	}
	return res
}
