package saavn

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// The upstream wraps every payload in a success envelope.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// flexInt decodes JSON numbers and numeric strings. The upstream is
// inconsistent: year and play counts arrive as either. Absent, null or
// unparseable values decode to zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Some fields come back as floats
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			*f = 0
			return nil
		}
		n = int(fl)
	}
	*f = flexInt(n)
	return nil
}

// flexBool decodes JSON booleans and "true"/"false" strings.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	*f = flexBool(s == "true" || s == "1")
	return nil
}

// rawImage decodes an image variant that is either a bare URL string or
// a {quality, url} object.
type rawImage struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

func (i *rawImage) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		i.URL = s
		return nil
	}
	type alias rawImage
	var a alias
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return nil // tolerate odd variants
	}
	*i = rawImage(a)
	return nil
}

type rawDownload struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

type rawArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// rawArtistMap is the structured artists-by-role object newer payloads
// carry instead of the flat primaryArtists string.
type rawArtistMap struct {
	Primary []rawArtistRef `json:"primary"`
}

type rawAlbumRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type rawSong struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Type            string        `json:"type"`
	Year            flexInt       `json:"year"`
	Duration        flexInt       `json:"duration"`
	Language        string        `json:"language"`
	HasLyrics       flexBool      `json:"hasLyrics"`
	PlayCount       flexInt       `json:"playCount"`
	ExplicitContent flexBool      `json:"explicitContent"`
	URL             string        `json:"url"`
	PrimaryArtists  string        `json:"primaryArtists"`
	Artists         *rawArtistMap `json:"artists"`
	Album           *rawAlbumRef  `json:"album"`
	Image           []rawImage    `json:"image"`
	DownloadURL     []rawDownload `json:"downloadUrl"`
}

type rawSearchResults struct {
	Results []rawSong `json:"results"`
	Total   flexInt   `json:"total"`
}

type rawAlbum struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Year           flexInt       `json:"year"`
	ReleaseDate    string        `json:"releaseDate"`
	PrimaryArtists string        `json:"primaryArtists"`
	Artists        *rawArtistMap `json:"artists"`
	SongCount      flexInt       `json:"songCount"`
	URL            string        `json:"url"`
	Image          []rawImage    `json:"image"`
	Songs          []rawSong     `json:"songs"`
}

type rawBioEntry struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	Sequence int    `json:"sequence"`
}

type rawAlbumSummary struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Year  flexInt    `json:"year"`
	URL   string     `json:"url"`
	Image []rawImage `json:"image"`
}

type rawArtist struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	URL           string            `json:"url"`
	FollowerCount flexInt           `json:"followerCount"`
	FanCount      flexInt           `json:"fanCount"`
	IsVerified    flexBool          `json:"isVerified"`
	DominantType  string            `json:"dominantType"`
	Bio           []rawBioEntry     `json:"bio"`
	Image         []rawImage        `json:"image"`
	TopSongs      []rawSong         `json:"topSongs"`
	TopAlbums     []rawAlbumSummary `json:"topAlbums"`
}

type rawArtistResult struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Role  string     `json:"role"`
	Image []rawImage `json:"image"`
}

type rawArtistSearchResults struct {
	Results []rawArtistResult `json:"results"`
}

type rawLyrics struct {
	Lyrics       string `json:"lyrics"`
	Snippet      string `json:"snippet"`
	Copyright    string `json:"copyright"`
	SyncedLyrics string `json:"syncedLyrics"`
}

type rawChart struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle"`
	Count    flexInt    `json:"count"`
	Image    []rawImage `json:"image"`
}

type rawModuleList struct {
	Data []rawSong `json:"data"`
}

type rawModules struct {
	Trending rawModuleList `json:"trending"`
	Charts   []rawChart    `json:"charts"`
}
