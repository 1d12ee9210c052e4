package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Sport identifies a league/discipline detected from a title.
type Sport string

const (
	SportNFL     Sport = "nfl"
	SportNBA     Sport = "nba"
	SportMLB     Sport = "mlb"
	SportNHL     Sport = "nhl"
	SportSoccer  Sport = "soccer"
	SportUFC     Sport = "ufc"
	SportUnknown Sport = ""
)

// BetType classifies the wager structure a sports title describes.
type BetType string

const (
	BetMoneyline BetType = "moneyline"
	BetWinner    BetType = "winner"
	BetFutures   BetType = "futures"
	BetSpread    BetType = "spread"
	BetTotal     BetType = "total"
	BetUnknown   BetType = ""
)

// CompatibleBetTypes are wager structures that price the same outcome even
// though venues label them differently.
var CompatibleBetTypes = map[BetType]bool{
	BetMoneyline: true,
	BetWinner:    true,
	BetFutures:   true,
}

type teamEntry struct {
	canonical string
	sport     Sport
}

// teamAliases maps surface forms to canonical team names. Ambiguous
// nicknames shared across leagues are deliberately left out.
var teamAliases = map[string]teamEntry{
	// NFL
	"chiefs": {"chiefs", SportNFL}, "kansas city chiefs": {"chiefs", SportNFL}, "kansas city": {"chiefs", SportNFL},
	"bills": {"bills", SportNFL}, "buffalo bills": {"bills", SportNFL}, "buffalo": {"bills", SportNFL},
	"eagles": {"eagles", SportNFL}, "philadelphia eagles": {"eagles", SportNFL},
	"cowboys": {"cowboys", SportNFL}, "dallas cowboys": {"cowboys", SportNFL},
	"49ers": {"49ers", SportNFL}, "san francisco 49ers": {"49ers", SportNFL}, "niners": {"49ers", SportNFL},
	"ravens": {"ravens", SportNFL}, "baltimore ravens": {"ravens", SportNFL},
	"packers": {"packers", SportNFL}, "green bay packers": {"packers", SportNFL}, "green bay": {"packers", SportNFL},
	"lions": {"lions", SportNFL}, "detroit lions": {"lions", SportNFL},
	"bengals": {"bengals", SportNFL}, "cincinnati bengals": {"bengals", SportNFL},
	"steelers": {"steelers", SportNFL}, "pittsburgh steelers": {"steelers", SportNFL},
	// NBA
	"lakers": {"lakers", SportNBA}, "los angeles lakers": {"lakers", SportNBA},
	"celtics": {"celtics", SportNBA}, "boston celtics": {"celtics", SportNBA},
	"warriors": {"warriors", SportNBA}, "golden state warriors": {"warriors", SportNBA}, "golden state": {"warriors", SportNBA},
	"bucks": {"bucks", SportNBA}, "milwaukee bucks": {"bucks", SportNBA},
	"nuggets": {"nuggets", SportNBA}, "denver nuggets": {"nuggets", SportNBA},
	"knicks": {"knicks", SportNBA}, "new york knicks": {"knicks", SportNBA},
	"heat": {"heat", SportNBA}, "miami heat": {"heat", SportNBA},
	"thunder": {"thunder", SportNBA}, "oklahoma city thunder": {"thunder", SportNBA},
	// MLB
	"yankees": {"yankees", SportMLB}, "new york yankees": {"yankees", SportMLB},
	"dodgers": {"dodgers", SportMLB}, "los angeles dodgers": {"dodgers", SportMLB},
	"mets": {"mets", SportMLB}, "new york mets": {"mets", SportMLB},
	"braves": {"braves", SportMLB}, "atlanta braves": {"braves", SportMLB},
	"astros": {"astros", SportMLB}, "houston astros": {"astros", SportMLB},
	"phillies": {"phillies", SportMLB}, "philadelphia phillies": {"phillies", SportMLB},
	// NHL
	"oilers": {"oilers", SportNHL}, "edmonton oilers": {"oilers", SportNHL},
	"avalanche": {"avalanche", SportNHL}, "colorado avalanche": {"avalanche", SportNHL},
	"maple leafs": {"maple leafs", SportNHL}, "toronto maple leafs": {"maple leafs", SportNHL},
	"golden knights": {"golden knights", SportNHL}, "vegas golden knights": {"golden knights", SportNHL},
	"lightning": {"lightning", SportNHL}, "tampa bay lightning": {"lightning", SportNHL},
	"canucks": {"canucks", SportNHL}, "vancouver canucks": {"canucks", SportNHL},
}

var teamKeys = func() []string {
	keys := make([]string, 0, len(teamAliases))
	for k := range teamAliases {
		keys = append(keys, k)
	}
	// longest first, same ordering contract as the entity alias tables
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && (len(keys[j]) > len(keys[j-1]) || (len(keys[j]) == len(keys[j-1]) && keys[j] < keys[j-1])); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}()

var sportLeagueKeywords = map[Sport][]string{
	SportNFL:    {"nfl", "super bowl", "touchdown", "quarterback"},
	SportNBA:    {"nba", "nba finals"},
	SportMLB:    {"mlb", "world series", "home run"},
	SportNHL:    {"nhl", "stanley cup"},
	SportSoccer: {"premier league", "champions league", "world cup", "la liga"},
	SportUFC:    {"ufc", "octagon"},
}

// MajorEvent is a championship-level event both venues list markets for.
var majorEventKeywords = map[string][]string{
	"super_bowl":    {"super bowl", "superbowl"},
	"world_series":  {"world series"},
	"nba_finals":    {"nba finals"},
	"stanley_cup":   {"stanley cup"},
	"world_cup":     {"world cup"},
	"march_madness": {"march madness", "ncaa tournament"},
}

var genericSportsKeywords = []string{
	"moneyline", "point spread", "vs", "@", "playoffs",
	"game winner", "match winner", "to win the",
}

var (
	weekRE   = regexp.MustCompile(`(?i)\bweek\s+(\d{1,2})\b`)
	gameRE   = regexp.MustCompile(`(?i)\bgame\s+(\d{1,2})\b`)
	spreadRE = regexp.MustCompile(`(?i)([+-]\d+(?:\.\d+)?)\b`)
	totalRE  = regexp.MustCompile(`(?i)\b(?:over|under)\s+(\d+(?:\.\d+)?)\b`)
)

// DateMarker is an explicit schedule reference inside a sports title. Two
// markers of the same kind must agree for titles to refer to the same game.
type DateMarker struct {
	Kind  string // "week" or "game"
	Value int
}

// SportsSignals is everything the sports gate and scorer need from a title.
type SportsSignals struct {
	IsSports   bool
	Sport      Sport
	Teams      []string
	BetType    BetType
	MajorEvent string
	Marker     *DateMarker
	Line       *float64 // spread line, signed
	Total      *float64 // over/under total
}

// DetectTeams returns the canonical teams named in the title, earliest first.
func DetectTeams(title string) []string {
	lower := strings.ToLower(title)
	type hit struct {
		idx  int
		name string
	}
	var hits []hit
	seen := map[string]bool{}
	for _, alias := range teamKeys {
		idx := indexWord(lower, alias)
		if idx < 0 {
			continue
		}
		entry := teamAliases[alias]
		if seen[entry.canonical] {
			continue
		}
		seen[entry.canonical] = true
		hits = append(hits, hit{idx, entry.canonical})
	}
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].idx < hits[j-1].idx; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	teams := make([]string, len(hits))
	for i, h := range hits {
		teams[i] = h.name
	}
	return teams
}

// DetectSport infers the league from explicit keywords first, then from the
// teams named in the title.
func DetectSport(title string) Sport {
	lower := strings.ToLower(title)
	for _, sport := range []Sport{SportNFL, SportNBA, SportMLB, SportNHL, SportSoccer, SportUFC} {
		for _, kw := range sportLeagueKeywords[sport] {
			// word-boundary match; "inflation" must not hit "nfl"
			if indexWord(lower, kw) >= 0 {
				return sport
			}
		}
	}
	for _, alias := range teamKeys {
		if indexWord(lower, alias) >= 0 {
			return teamAliases[alias].sport
		}
	}
	return SportUnknown
}

// DetectBetType classifies the wager structure. Spread and total markers win
// over winner wording because a spread title usually also names a winner.
func DetectBetType(title string) BetType {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "spread") || strings.Contains(lower, "handicap"):
		return BetSpread
	case totalRE.MatchString(lower) && (strings.Contains(lower, "points") || strings.Contains(lower, "total")):
		return BetTotal
	case strings.Contains(lower, "moneyline") || strings.Contains(lower, "money line"):
		return BetMoneyline
	case strings.Contains(lower, "to win the") || strings.Contains(lower, "champion"):
		return BetFutures
	case strings.Contains(lower, "winner") || strings.Contains(lower, "to win"):
		return BetWinner
	default:
		return BetUnknown
	}
}

// DetectMajorEvent returns the canonical championship event named in the
// title, or "".
func DetectMajorEvent(title string) string {
	lower := strings.ToLower(title)
	for event, kws := range majorEventKeywords {
		for _, kw := range kws {
			if strings.Contains(lower, kw) {
				return event
			}
		}
	}
	return ""
}

// DetectMarker extracts an explicit week/game schedule marker.
func DetectMarker(title string) *DateMarker {
	if m := weekRE.FindStringSubmatch(title); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return &DateMarker{Kind: "week", Value: v}
		}
	}
	if m := gameRE.FindStringSubmatch(title); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return &DateMarker{Kind: "game", Value: v}
		}
	}
	return nil
}

// IsSports reports whether the title reads as a sports market: an explicit
// league keyword, a recognized team, or generic sportsbook wording.
func IsSports(title string) bool {
	lower := strings.ToLower(title)
	for _, kws := range sportLeagueKeywords {
		for _, kw := range kws {
			if indexWord(lower, kw) >= 0 {
				return true
			}
		}
	}
	if len(DetectTeams(title)) > 0 {
		return true
	}
	for _, kw := range genericSportsKeywords {
		if indexWord(lower, kw) >= 0 {
			return true
		}
	}
	return false
}

// Sports extracts the full sports signal bundle from a title. Callers should
// check IsSports before relying on the other fields.
func Sports(title string) SportsSignals {
	sig := SportsSignals{IsSports: IsSports(title)}
	if !sig.IsSports {
		return sig
	}
	sig.Sport = DetectSport(title)
	sig.Teams = DetectTeams(title)
	sig.BetType = DetectBetType(title)
	sig.MajorEvent = DetectMajorEvent(title)
	sig.Marker = DetectMarker(title)
	if sig.BetType == BetSpread {
		if m := spreadRE.FindStringSubmatch(title); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				sig.Line = &v
			}
		}
	}
	if m := totalRE.FindStringSubmatch(title); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			sig.Total = &v
		}
	}
	return sig
}
