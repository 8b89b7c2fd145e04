package saavn

import (
	"regexp"
	"strconv"
	"strings"
)

// bestImage picks the highest-quality variant. Upstream lists variants
// smallest first, so the last non-empty URL wins.
func bestImage(images []rawImage) string {
	for i := len(images) - 1; i >= 0; i-- {
		if images[i].URL != "" {
			return images[i].URL
		}
	}
	return ""
}

func normalizeImages(images []rawImage) []Image {
	if len(images) == 0 {
		return nil
	}
	out := make([]Image, 0, len(images))
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		out = append(out, Image{Quality: img.Quality, URL: img.URL})
	}
	return out
}

// artistName resolves the display artist for a song. The flat
// primaryArtists string wins; newer payloads only carry the structured
// artists map.
func artistName(s *rawSong) string {
	if s.PrimaryArtists != "" {
		return s.PrimaryArtists
	}
	if s.Artists != nil && len(s.Artists.Primary) > 0 {
		names := make([]string, 0, len(s.Artists.Primary))
		for _, a := range s.Artists.Primary {
			if a.Name != "" {
				names = append(names, a.Name)
			}
		}
		if len(names) > 0 {
			return strings.Join(names, ", ")
		}
	}
	return "Unknown Artist"
}

func normalizeSong(s *rawSong) Song {
	song := Song{
		ID:        s.ID,
		Title:     s.Name,
		Artist:    artistName(s),
		Image:     bestImage(s.Image),
		Images:    normalizeImages(s.Image),
		Duration:  int(s.Duration),
		Year:      int(s.Year),
		Language:  s.Language,
		HasLyrics: bool(s.HasLyrics),
		PlayCount: int(s.PlayCount),
		URL:       s.URL,
		Explicit:  bool(s.ExplicitContent),
	}
	if s.Album != nil {
		song.Album = s.Album.Name
		song.AlbumID = s.Album.ID
	}
	return song
}

func normalizeSongs(raws []rawSong) []Song {
	songs := make([]Song, 0, len(raws))
	for i := range raws {
		songs = append(songs, normalizeSong(&raws[i]))
	}
	return songs
}

func normalizeAlbum(a *rawAlbum) Album {
	artist := a.PrimaryArtists
	if artist == "" && a.Artists != nil && len(a.Artists.Primary) > 0 {
		names := make([]string, 0, len(a.Artists.Primary))
		for _, ref := range a.Artists.Primary {
			if ref.Name != "" {
				names = append(names, ref.Name)
			}
		}
		artist = strings.Join(names, ", ")
	}
	if artist == "" {
		artist = "Unknown Artist"
	}

	album := Album{
		ID:          a.ID,
		Name:        a.Name,
		Year:        int(a.Year),
		ReleaseDate: a.ReleaseDate,
		Artist:      artist,
		SongCount:   int(a.SongCount),
		Image:       bestImage(a.Image),
		URL:         a.URL,
		Songs:       normalizeSongs(a.Songs),
	}
	if album.SongCount == 0 {
		album.SongCount = len(album.Songs)
	}
	return album
}

func normalizeArtist(a *rawArtist) Artist {
	bio := make([]BioEntry, 0, len(a.Bio))
	for _, b := range a.Bio {
		if b.Text == "" {
			continue
		}
		bio = append(bio, BioEntry{Title: b.Title, Text: b.Text, Sequence: b.Sequence})
	}

	albums := make([]AlbumSummary, 0, len(a.TopAlbums))
	for _, al := range a.TopAlbums {
		albums = append(albums, AlbumSummary{
			ID:    al.ID,
			Name:  al.Name,
			Year:  int(al.Year),
			Image: bestImage(al.Image),
			URL:   al.URL,
		})
	}

	return Artist{
		ID:            a.ID,
		Name:          a.Name,
		Image:         bestImage(a.Image),
		URL:           a.URL,
		FollowerCount: int(a.FollowerCount),
		FanCount:      int(a.FanCount),
		IsVerified:    bool(a.IsVerified),
		DominantType:  a.DominantType,
		Bio:           bio,
		TopSongs:      normalizeSongs(a.TopSongs),
		TopAlbums:     albums,
	}
}

func normalizeArtistResults(raws []rawArtistResult) []ArtistResult {
	out := make([]ArtistResult, 0, len(raws))
	for _, r := range raws {
		out = append(out, ArtistResult{
			ID:    r.ID,
			Name:  r.Name,
			Image: bestImage(r.Image),
			Type:  "artist",
			Role:  r.Role,
		})
	}
	return out
}

func normalizeChart(c *rawChart) Chart {
	return Chart{
		ID:        c.ID,
		Title:     c.Title,
		Image:     bestImage(c.Image),
		Type:      "chart",
		SongCount: int(c.Count),
		Subtitle:  c.Subtitle,
	}
}

// lrcTimestamp matches [mm:ss.xx] and [mm:ss] tags, including the
// multi-tag form where one line carries several timestamps.
var lrcTimestamp = regexp.MustCompile(`\[(\d+):(\d{1,2})(?:[.:](\d{1,3}))?\]`)

// parseLRC converts LRC text into timed lines sorted by appearance.
// Lines without a timestamp tag are skipped.
func parseLRC(text string) []SyncedLine {
	var lines []SyncedLine
	for _, raw := range strings.Split(text, "\n") {
		matches := lrcTimestamp.FindAllStringSubmatchIndex(raw, -1)
		if len(matches) == 0 {
			continue
		}
		content := strings.TrimSpace(raw[matches[len(matches)-1][1]:])
		for _, m := range matches {
			minutes, _ := strconv.Atoi(raw[m[2]:m[3]])
			seconds, _ := strconv.Atoi(raw[m[4]:m[5]])
			ms := 0
			if m[6] >= 0 {
				frac := raw[m[6]:m[7]]
				n, _ := strconv.Atoi(frac)
				switch len(frac) {
				case 1:
					ms = n * 100
				case 2:
					ms = n * 10
				default:
					ms = n
				}
			}
			lines = append(lines, SyncedLine{
				TimeMs: minutes*60000 + seconds*1000 + ms,
				Text:   content,
			})
		}
	}
	return lines
}

// estimateSyncedLines synthesizes timing for plain lyrics at a fixed
// three seconds per line. Blank lines are dropped.
func estimateSyncedLines(text string) []SyncedLine {
	var lines []SyncedLine
	i := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lines = append(lines, SyncedLine{TimeMs: i * 3000, Text: line})
		i++
	}
	return lines
}

// stripHTMLBreaks converts the <br> separators the lyrics endpoint uses
// into newlines.
func stripHTMLBreaks(text string) string {
	replacer := strings.NewReplacer("<br/>", "\n", "<br />", "\n", "<br>", "\n")
	return replacer.Replace(text)
}
