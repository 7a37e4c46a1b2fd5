package devserver

import (
	"sort"
	"strings"

	"fitnest/client/internal/config"
	"fitnest/client/internal/models"
)

// profileScore is a stand-in for the real matcher: shared district,
// university and major each add to a base score.
func profileScore(self, other *models.Account) float64 {
	score := 50.0
	if sameText(self.District, other.District) {
		score += 25
	}
	if sameText(self.University, other.University) {
		score += 15
	}
	if sameText(self.Major, other.Major) {
		score += 9
	}
	return score
}

func listingScore(self *models.Account, l *models.Listing) float64 {
	score := 55.0
	if sameText(self.District, l.Location) {
		score += 30
	}
	if l.HostAccountID == self.ID {
		score = 0
	}
	return score
}

func sameText(a, b string) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func rankCandidates(self *models.Account, others []models.Account) []models.MatchCandidate {
	out := make([]models.MatchCandidate, 0, len(others))
	for i := range others {
		o := &others[i]
		out = append(out, models.MatchCandidate{
			UserID:     o.ID,
			Username:   o.Username,
			FullName:   o.FullName,
			Age:        o.Age,
			District:   o.District,
			University: o.University,
			Major:      o.Major,
			AvatarURL:  o.AvatarURL,
			MatchScore: profileScore(self, o),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out
}

// mutualMatches keeps candidates at or above the medium tier.
func mutualMatches(ranked []models.MatchCandidate) []models.MatchProfile {
	out := []models.MatchProfile{}
	for _, c := range ranked {
		if c.MatchScore >= config.CompatibilityMedium {
			out = append(out, models.MatchProfile{UserID: c.UserID, Username: c.Username, MatchScore: c.MatchScore})
		}
	}
	return out
}

func recommendListings(self *models.Account, listings []models.Listing, hosts map[int64]*models.Account) []models.ExploreListing {
	out := make([]models.ExploreListing, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		if l.HostAccountID == self.ID {
			continue
		}
		el := models.ExploreListing{
			ID:          int64(l.ID),
			Title:       l.Title,
			Price:       l.Price,
			Size:        l.Size,
			Location:    l.Location,
			Images:      decodeList(l.ImagesJSON),
			FitScore:    listingScore(self, l),
			Features:    decodeList(l.FeaturesJSON),
			Description: l.Description,
		}
		if host, ok := hosts[l.HostAccountID]; ok {
			el.Host = models.ListingHost{
				Name:          displayName(host),
				Image:         host.AvatarURL,
				Compatibility: profileScore(self, host),
			}
		}
		out = append(out, el)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FitScore > out[j].FitScore })
	return out
}
