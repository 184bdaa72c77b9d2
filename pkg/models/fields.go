package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Column names shared by every storage backend
const (
	ColUserID       = "User_ID"
	ColUserName     = "User_Name"
	ColBio          = "Bio"
	ColLocation     = "Location"
	ColWebsite      = "Website"
	ColBirthDate    = "Date of Birth"
	ColJoinDate     = "Join Date"
	ColFollowing    = "Following"
	ColFollowers    = "Followers"
	ColProfileImage = "Profile Image"
	ColCoverImage   = "Cover Image"
	ColTweetCount   = "Tweet_Count"

	ColPostID   = "Post_ID"
	ColContent  = "Content"
	ColPostDate = "Post_Date"
	ColLikes    = "#Likes"
	ColHashtag  = "Hashtag"

	ColChangedField = "Changed_Field"
	ColPrevValue    = "Prev_Value"
	ColCurrValue    = "Curr_Value"
	ColDelta        = "Delta"
	ColTimestamp    = "Timestamp"
)

var (
	UserColumns = []string{
		ColUserID, ColUserName, ColBio, ColLocation, ColWebsite, ColBirthDate,
		ColJoinDate, ColFollowing, ColFollowers, ColProfileImage, ColCoverImage, ColTweetCount,
	}
	PostColumns   = []string{ColPostID, ColUserID, ColUserName, ColContent, ColPostDate, ColLikes, ColHashtag}
	ChangeColumns = []string{ColUserID, ColUserName, ColChangedField, ColPrevValue, ColCurrValue, ColDelta, ColTimestamp}
)

// Field is a named, possibly absent attribute of a UserProfile. Fields
// returned by UserProfile.Fields point into the profile they came from.
type Field struct {
	Name string
	str  *Opt[string]
	num  *Opt[int64]
}

// Text returns the canonical string form and whether the field is set
func (f Field) Text() (string, bool) {
	if f.num != nil {
		v, ok := f.num.Get()
		if !ok {
			return "", false
		}
		return strconv.FormatInt(v, 10), true
	}
	return f.str.Get()
}

// CopyFrom overwrites this field with the value of a same-named field
func (f Field) CopyFrom(src Field) {
	switch {
	case f.num != nil && src.num != nil:
		*f.num = *src.num
	case f.str != nil && src.str != nil:
		*f.str = *src.str
	}
}

// Fields lists the tracked attributes in column order. The identity key
// and the sighting counter are not included.
func (u *UserProfile) Fields() []Field {
	return []Field{
		{Name: ColUserName, str: &u.Name},
		{Name: ColBio, str: &u.Bio},
		{Name: ColLocation, str: &u.Location},
		{Name: ColWebsite, str: &u.Website},
		{Name: ColBirthDate, str: &u.BirthDate},
		{Name: ColJoinDate, str: &u.JoinDate},
		{Name: ColFollowing, num: &u.Following},
		{Name: ColFollowers, num: &u.Followers},
		{Name: ColProfileImage, str: &u.ProfileImage},
		{Name: ColCoverImage, str: &u.CoverImage},
	}
}

// Row renders the profile in UserColumns order; absent values are empty
func (u UserProfile) Row() []string {
	row := make([]string, 0, len(UserColumns))
	row = append(row, u.Handle)
	for _, f := range u.Fields() {
		v, _ := f.Text()
		row = append(row, v)
	}
	return append(row, strconv.FormatInt(u.TweetCount, 10))
}

// UserFromRow decodes a stored row keyed by column name
func UserFromRow(row map[string]string) UserProfile {
	u := UserProfile{Handle: strings.TrimSpace(row[ColUserID])}
	for _, f := range u.Fields() {
		cell := row[f.Name]
		if f.num != nil {
			*f.num = ParseCount(cell)
			continue
		}
		if cell != "" {
			*f.str = Some(cell)
		}
	}
	u.TweetCount = ParseCount(row[ColTweetCount]).OrElse(0)
	return u
}

// ParseCount reads an integer cell. Spreadsheet engines may hand back
// integral floats such as "12.0"; anything non-integral is absent.
func ParseCount(cell string) Opt[int64] {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return None[int64]()
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return Some(n)
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return None[int64]()
	}
	return Some(int64(f))
}

// Row renders the post in PostColumns order
func (p Post) Row() []string {
	return []string{
		p.PostID,
		p.AuthorHandle,
		p.AuthorName,
		p.Content,
		p.PublishDate,
		strconv.FormatInt(p.Likes, 10),
		p.Hashtag.OrElse(""),
	}
}

// PostFromRow decodes a stored row keyed by column name
func PostFromRow(row map[string]string) Post {
	p := Post{
		PostID:       strings.TrimSpace(row[ColPostID]),
		AuthorHandle: row[ColUserID],
		AuthorName:   row[ColUserName],
		Content:      row[ColContent],
		PublishDate:  row[ColPostDate],
		Likes:        ParseCount(row[ColLikes]).OrElse(0),
	}
	if tag := row[ColHashtag]; tag != "" {
		p.Hashtag = Some(tag)
	}
	return p
}

// Row renders the event in ChangeColumns order
func (e ChangeEvent) Row() []string {
	return []string{
		e.SubjectID,
		e.SubjectName,
		e.Field,
		e.OldValue,
		e.NewValue,
		e.Delta.String(),
		e.Timestamp.Format(time.RFC3339),
	}
}

// ChangeFromRow decodes a stored change row
func ChangeFromRow(row map[string]string) ChangeEvent {
	e := ChangeEvent{
		SubjectID:   row[ColUserID],
		SubjectName: row[ColUserName],
		Field:       row[ColChangedField],
		OldValue:    row[ColPrevValue],
		NewValue:    row[ColCurrValue],
	}
	if d, err := strconv.ParseFloat(strings.TrimSpace(row[ColDelta]), 64); err == nil {
		e.Delta = DeltaOf(d)
	}
	if ts, err := time.Parse(time.RFC3339, row[ColTimestamp]); err == nil {
		e.Timestamp = ts
	}
	return e
}

// RowMap pairs a header with a row. Short rows are padded with empty cells.
func RowMap(header, row []string) map[string]string {
	m := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(row) {
			m[col] = row[i]
		} else {
			m[col] = ""
		}
	}
	return m
}
