package extract

// X DOM lookup rules. The site reshuffles its markup often; each field
// lists its rules in priority order and the first non-empty hit wins.
// Update these when extraction starts reporting fields as missing.

var (
	nameRules = []Rule{
		{Selector: `[data-testid="UserName"] div[dir="ltr"] span span`},
		{Selector: `[data-testid="UserName"] span span`},
		{Selector: `[data-testid="UserName"] span`},
	}
	handleRules = []Rule{
		{Selector: `[data-testid="UserName"] div[dir="ltr"] span:contains("@")`},
		{Selector: `[data-testid="UserName"] span:contains("@")`},
	}
	bioRules = []Rule{
		{Selector: `[data-testid="UserDescription"]`},
	}
	locationRules = []Rule{
		{Selector: `[data-testid="UserLocation"]`},
	}
	websiteRules = []Rule{
		{Selector: `[data-testid="UserUrl"]`},
		{Selector: `[data-testid="UserUrl"]`, Attr: "href"},
	}
	birthDateRules = []Rule{
		{Selector: `[data-testid="UserBirthdate"]`},
	}
	joinDateRules = []Rule{
		{Selector: `[data-testid="UserJoinDate"]`},
	}
	followingRules = []Rule{
		{Selector: `a[href$="/following"] span span`},
		{Selector: `a[href$="/following"] span`},
	}
	followersRules = []Rule{
		{Selector: `a[href$="/verified_followers"] span span`},
		{Selector: `a[href$="/followers"] span span`},
		{Selector: `a:has(span:contains("Followers")) > span`},
	}
	profileImageRules = []Rule{
		{Selector: `img[src*="profile_images"]`, Attr: "src"},
	}
	coverImageRules = []Rule{
		{Selector: `img[src*="profile_banners"]`, Attr: "src"},
		{Selector: `a[href$="/header_photo"] img`, Attr: "src"},
	}
)

// Post-level selectors, evaluated inside one article
const (
	articleSelector    = `article[role="article"]`
	authorNameSelector = `div[data-testid="User-Name"] span`
	authorAtSelector   = `div[data-testid="User-Name"] span:contains("@")`
	postTextSelector   = `div[data-testid="tweetText"]`
	postTimeSelector   = `time[datetime]`
	ariaLabelSelector  = `[aria-label]`

	// RetryMarkerSelector matches the site's "Retry" error placeholder
	RetryMarkerSelector = `span:contains("Retry")`
)

var permalinkRules = []Rule{
	{Selector: `a[href*="/status/"]:has(time)`, Attr: "href"},
	{Selector: `a[href*="/status/"]`, Attr: "href"},
}

var likeButtonRules = []Rule{
	{Selector: `[data-testid="like"]`, Attr: "aria-label"},
	{Selector: `[data-testid="unlike"]`, Attr: "aria-label"},
}
