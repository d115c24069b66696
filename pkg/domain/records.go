package domain

// Tweet is one post extracted from a profile page.
type Tweet struct {
	Content              string `json:"content"`
	NumLikes             int    `json:"num_likes"`
	NumRetweetsAndQuotes int    `json:"num_retweets_and_quotes"`
	NumReplies           int    `json:"num_replies"`
	PublishedAt          string `json:"published_at"`
}

type TweetList struct {
	Tweets []Tweet `json:"tweets"`
}

type FollowerList struct {
	Followers []string `json:"followers"`
}

type Commit struct {
	Message       string `json:"message"`
	Description   string `json:"description,omitempty"`
	CommitterName string `json:"committer_name"`
	IsVerified    bool   `json:"is_verified"`
}

type FileChange struct {
	FilePath        string `json:"file_path"`
	Additions       int    `json:"additions"`
	Deletions       int    `json:"deletions"`
	CodeChange      string `json:"code_change"`
	RawCodeOriginal string `json:"raw_code_original"`
	RawCodeChanged  string `json:"raw_code_changed"`
	IsVisible       bool   `json:"is_visible"`
}

// GitComparison is the typed view of a GitHub compare page.
type GitComparison struct {
	NumCommits      int          `json:"num_commits"`
	NumFilesChanged int          `json:"num_files_changed"`
	Commits         []Commit     `json:"commits"`
	FileChanges     []FileChange `json:"file_changes"`
}

// Article is extracted page content ready for speech synthesis.
// Author and Abstract are empty when the page does not carry them.
type Article struct {
	Title       string `json:"title"`
	FullContent string `json:"fullContent"`
	Author      string `json:"author,omitempty"`
	Abstract    string `json:"abstract,omitempty"`
}

type TranscriptSegment struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

type Transcript struct {
	VideoID  string              `json:"videoId"`
	Title    string              `json:"title"`
	Segments []TranscriptSegment `json:"segments"`
}

// ChatTurn is one question/answer exchange about a transcript.
type ChatTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TravelDestination is one getaway option read off a travel search screenshot.
// Dates use the 2006-01-02 layout; prices are whole currency units.
type TravelDestination struct {
	Location   string `json:"location"`
	Price      int    `json:"price"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	TravelTime string `json:"travel_time"`
	StayCost   int    `json:"stay_cost"`
}

type TripDuration string

const (
	TripWeekend  TripDuration = "Weekend"
	TripOneWeek  TripDuration = "1 Week"
	TripTwoWeeks TripDuration = "2 Weeks"
)

func (d TripDuration) Valid() bool {
	switch d {
	case TripWeekend, TripOneWeek, TripTwoWeeks:
		return true
	}
	return false
}

// Coordinates are decimal degrees; the zero value means the page listed none.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinates) Known() bool { return c.Lat != 0 || c.Lng != 0 }

// Place is one Atlas Obscura entry suggested for a day.
type Place struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Images      []string    `json:"images"`
	PageURL     string      `json:"page_url"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
}

// DayPlan groups the places to visit on one day at a destination. Day is
// 1-based.
type DayPlan struct {
	Day    int     `json:"day"`
	Places []Place `json:"places"`
}
