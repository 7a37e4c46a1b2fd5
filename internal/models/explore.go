package models

// MatchCandidate is the raw row of GET /matches/my-matches.
type MatchCandidate struct {
	UserID     int64   `json:"user_id"`
	Username   string  `json:"username"`
	FullName   string  `json:"full_name,omitempty"`
	Age        int     `json:"age,omitempty"`
	District   string  `json:"district,omitempty"`
	University string  `json:"university,omitempty"`
	Major      string  `json:"major,omitempty"`
	AvatarURL  string  `json:"avatar_url,omitempty"`
	MatchScore float64 `json:"match_score"`
}

// ExploreProfile is a roommate card as the deck shows it.
type ExploreProfile struct {
	ID            int64
	Name          string
	Age           int
	City          string
	University    string
	Major         string
	Image         string
	Compatibility float64
}

// ProfileFromCandidate maps the backend row onto the card shape.
func ProfileFromCandidate(c MatchCandidate) ExploreProfile {
	name := c.FullName
	if name == "" {
		name = c.Username
	}
	return ExploreProfile{
		ID:            c.UserID,
		Name:          name,
		Age:           c.Age,
		City:          c.District,
		University:    c.University,
		Major:         c.Major,
		Image:         c.AvatarURL,
		Compatibility: c.MatchScore,
	}
}

// ListingHost is the person offering a listing.
type ListingHost struct {
	Name          string  `json:"name"`
	Image         string  `json:"image"`
	Compatibility float64 `json:"compatibility"`
}

// ExploreListing is a row of GET /listings/recommendations.
type ExploreListing struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Price       float64     `json:"price"`
	Size        float64     `json:"size"`
	Location    string      `json:"location"`
	Images      []string    `json:"images"`
	FitScore    float64     `json:"fitScore"`
	Host        ListingHost `json:"host"`
	Features    []string    `json:"features"`
	Description string      `json:"description"`
}

// MatchProfile is a row of GET /matches.
type MatchProfile struct {
	UserID     int64   `json:"user_id"`
	Username   string  `json:"username"`
	MatchScore float64 `json:"match_score"`
}
