package models

import (
	"math"
	"strconv"
	"time"
)

// WorkKind says what a work item names
type WorkKind string

const (
	WorkUser    WorkKind = "user"
	WorkHashtag WorkKind = "hashtag"
)

// WorkItem is one entry of the work list
type WorkItem struct {
	Kind  WorkKind `json:"kind"`
	Value string   `json:"value"`
}

// UserProfile is the latest known state of an account, keyed by Handle.
// Handle is mutable on the site; a rename is tracked as a change.
type UserProfile struct {
	Handle       string      `json:"user_id"`
	Name         Opt[string] `json:"user_name"`
	Bio          Opt[string] `json:"bio"`
	Location     Opt[string] `json:"location"`
	Website      Opt[string] `json:"website"`
	BirthDate    Opt[string] `json:"date_of_birth"`
	JoinDate     Opt[string] `json:"join_date"`
	Following    Opt[int64]  `json:"following"`
	Followers    Opt[int64]  `json:"followers"`
	ProfileImage Opt[string] `json:"profile_image"`
	CoverImage   Opt[string] `json:"cover_image"`
	TweetCount   int64       `json:"tweet_count"`
}

// Post is a single status keyed by the numeric id from its permalink
type Post struct {
	PostID       string      `json:"post_id"`
	AuthorHandle string      `json:"user_id"`
	AuthorName   string      `json:"user_name"`
	Content      string      `json:"content"`
	PublishDate  string      `json:"post_date"`
	Likes        int64       `json:"likes"`
	Hashtag      Opt[string] `json:"hashtag"`
}

// Delta is the numeric difference carried by a change event.
// Invalid deltas render as an empty cell.
type Delta struct {
	Value float64
	Valid bool
}

// DeltaOf returns a valid delta
func DeltaOf(v float64) Delta {
	return Delta{Value: v, Valid: true}
}

func (d Delta) String() string {
	if !d.Valid || math.IsNaN(d.Value) || math.IsInf(d.Value, 0) {
		return ""
	}
	if d.Value == math.Trunc(d.Value) && math.Abs(d.Value) < 1e15 {
		return strconv.FormatInt(int64(d.Value), 10)
	}
	return strconv.FormatFloat(d.Value, 'f', -1, 64)
}

// ChangeEvent records one field moving from OldValue to NewValue
type ChangeEvent struct {
	SubjectID   string
	SubjectName string
	Field       string
	OldValue    string
	NewValue    string
	Delta       Delta
	Timestamp   time.Time
}
