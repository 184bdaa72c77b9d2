package extract

import (
	"strings"

	"xwatch/pkg/browser"
	xerrors "xwatch/pkg/errors"
	"xwatch/pkg/models"
)

// ProfileResult is a best-effort profile. Missing lists the fields whose
// lookup found nothing; those fields are absent on Profile.
type ProfileResult struct {
	Profile models.UserProfile
	Missing []string
}

// Complete reports whether every field was found
func (r ProfileResult) Complete() bool {
	return len(r.Missing) == 0
}

// ExtractProfile reads a profile page. handle is the work-list handle; when
// the page shows a different canonical handle, that one is used.
func ExtractProfile(page *browser.Page, handle string) ProfileResult {
	res := ProfileResult{Profile: models.UserProfile{Handle: NormalizeHandle(handle)}}
	p := &res.Profile

	if shown, ok := lookupValid(page, handleRules, isHandle); ok {
		p.Handle = NormalizeHandle(shown)
	}

	text := func(field string, rules []Rule, dst *models.Opt[string], valid func(string) bool) {
		if v, ok := lookupValid(page, rules, valid); ok {
			*dst = models.Some(v)
			return
		}
		res.Missing = append(res.Missing, field)
	}
	count := func(field string, rules []Rule, dst *models.Opt[int64]) {
		if n, ok := lookupCount(page, rules); ok {
			*dst = models.Some(n)
			return
		}
		res.Missing = append(res.Missing, field)
	}

	text(models.ColUserName, nameRules, &p.Name, func(s string) bool { return !isHandle(s) })
	text(models.ColBio, bioRules, &p.Bio, nil)
	text(models.ColLocation, locationRules, &p.Location, nil)
	text(models.ColWebsite, websiteRules, &p.Website, nil)
	text(models.ColBirthDate, birthDateRules, &p.BirthDate, nil)
	text(models.ColJoinDate, joinDateRules, &p.JoinDate, nil)
	count(models.ColFollowing, followingRules, &p.Following)
	count(models.ColFollowers, followersRules, &p.Followers)
	text(models.ColProfileImage, profileImageRules, &p.ProfileImage, nil)
	text(models.ColCoverImage, coverImageRules, &p.CoverImage, nil)

	return res
}

// NormalizeHandle strips whitespace and the leading @
func NormalizeHandle(h string) string {
	return strings.TrimPrefix(strings.TrimSpace(h), "@")
}

func isHandle(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "@")
}

// PostContext carries what the caller knows about the page being read
type PostContext struct {
	Hashtag  models.Opt[string]
	Language string
	Detector LanguageDetector
}

// Sighting is an author seen on a post, before language filtering
type Sighting struct {
	Handle string
	Name   string
}

// Skip records why an article produced no post
type Skip struct {
	Permalink string
	Reason    error
}

// PostBatch is what one snapshot yielded
type PostBatch struct {
	Posts     []models.Post
	Sightings []Sighting
	// Filtered counts posts dropped by the language filter
	Filtered int
	Skipped  []Skip
}

// SeenSet suppresses re-extraction of posts within one scroll session
type SeenSet map[string]struct{}

// NewSeenSet returns an empty set
func NewSeenSet() SeenSet {
	return make(SeenSet)
}

// Add records id and reports whether it was new
func (s SeenSet) Add(id string) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// ExtractPosts reads every article on the page that seen has not produced
// yet. Each article is isolated: one malformed article never affects its
// siblings.
func ExtractPosts(page *browser.Page, pc PostContext, seen SeenSet) PostBatch {
	var batch PostBatch

	for _, art := range page.FindAll(articleSelector) {
		href, ok := lookup(art, permalinkRules)
		if !ok {
			continue
		}
		id, err := ExtractPostID(href)
		if err != nil {
			batch.Skipped = append(batch.Skipped, Skip{Permalink: href, Reason: err})
			continue
		}
		if !seen.Add(id) {
			continue
		}

		name, ok := lookup(art, []Rule{{Selector: authorNameSelector}})
		if !ok {
			batch.Skipped = append(batch.Skipped, Skip{
				Permalink: href,
				Reason:    xerrors.New(xerrors.ErrorTypeFieldExtraction, "author name missing"),
			})
			continue
		}
		handle, _ := lookup(art, []Rule{{Selector: authorAtSelector}})
		handle = NormalizeHandle(handle)
		if handle != "" {
			batch.Sightings = append(batch.Sightings, Sighting{Handle: handle, Name: name})
		}

		content, _ := lookup(art, []Rule{{Selector: postTextSelector}})
		if !keepLanguage(pc.Detector, content, pc.Language) {
			batch.Filtered++
			continue
		}

		date, _ := lookup(art, []Rule{{Selector: postTimeSelector, Attr: "datetime"}})
		if len(date) > 10 {
			date = date[:10]
		}

		batch.Posts = append(batch.Posts, models.Post{
			PostID:       id,
			AuthorHandle: handle,
			AuthorName:   name,
			Content:      content,
			PublishDate:  date,
			Likes:        likesOf(art),
			Hashtag:      pc.Hashtag,
		})
	}
	return batch
}

// likesOf reads the like counter from the first aria-label mentioning
// "Like" whose leading token is a counter.
func likesOf(art *browser.Element) int64 {
	if label, ok := lookupValid(art, likeButtonRules, leadingCount); ok {
		return ConvertLikesToNumber(firstToken(label))
	}
	for _, el := range art.FindAll(ariaLabelSelector) {
		label, _ := el.Attr("aria-label")
		if !strings.Contains(label, "Like") {
			continue
		}
		if leadingCount(label) {
			return ConvertLikesToNumber(firstToken(label))
		}
	}
	return 0
}

func leadingCount(label string) bool {
	return looksLikeCount(firstToken(label))
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
