package saavn

// Normalized entities. These are the gateway's stable schema: immutable
// once produced by the parser and safe to share across requests.

// Image is one image variant as exposed by the upstream.
type Image struct {
	Quality string `json:"quality,omitempty"`
	URL     string `json:"url"`
}

// Song is the normalized song shape served to clients.
type Song struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	Album     string  `json:"album,omitempty"`
	AlbumID   string  `json:"album_id,omitempty"`
	Image     string  `json:"image,omitempty"`
	Images    []Image `json:"images,omitempty"`
	Duration  int     `json:"duration"`
	Year      int     `json:"year"`
	Language  string  `json:"language,omitempty"`
	HasLyrics bool    `json:"has_lyrics"`
	PlayCount int     `json:"play_count,omitempty"`
	URL       string  `json:"url,omitempty"`
	Explicit  bool    `json:"explicit"`
}

// Album is a normalized album with its ordered track list.
type Album struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Year        int    `json:"year"`
	ReleaseDate string `json:"release_date,omitempty"`
	Artist      string `json:"artist"`
	SongCount   int    `json:"song_count"`
	Image       string `json:"image,omitempty"`
	URL         string `json:"url,omitempty"`
	Songs       []Song `json:"songs"`
}

// AlbumSummary is an album reference without a track list.
type AlbumSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Year  int    `json:"year"`
	Image string `json:"image,omitempty"`
	URL   string `json:"url,omitempty"`
}

// BioEntry is one section of an artist biography.
type BioEntry struct {
	Title    string `json:"title,omitempty"`
	Text     string `json:"text"`
	Sequence int    `json:"sequence,omitempty"`
}

// Artist is a normalized artist with top songs and albums.
type Artist struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Image         string         `json:"image,omitempty"`
	URL           string         `json:"url,omitempty"`
	FollowerCount int            `json:"follower_count"`
	FanCount      int            `json:"fan_count"`
	IsVerified    bool           `json:"is_verified"`
	DominantType  string         `json:"dominant_type,omitempty"`
	Bio           []BioEntry     `json:"bio"`
	TopSongs      []Song         `json:"top_songs"`
	TopAlbums     []AlbumSummary `json:"top_albums"`
}

// ArtistResult is one artist search hit.
type ArtistResult struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Type  string `json:"type"`
	Role  string `json:"role,omitempty"`
}

// Lyrics is the plain lyrics result for a song.
type Lyrics struct {
	HasLyrics bool   `json:"has_lyrics"`
	Lyrics    string `json:"lyrics,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
	Copyright string `json:"copyright,omitempty"`
}

// Synced lyrics sources. Estimated lines are synthesized from plain
// lyrics and carry no real timing.
const (
	SyncedSourceUpstream  = "upstream"
	SyncedSourceEstimated = "estimated"
)

// SyncedLine is one timed lyrics line.
type SyncedLine struct {
	TimeMs int    `json:"time_ms"`
	Text   string `json:"text"`
}

// SyncedLyrics holds LRC-style line-timed lyrics.
type SyncedLyrics struct {
	Source string       `json:"source"`
	Lines  []SyncedLine `json:"lines"`
}

// Chart is a chart/playlist summary.
type Chart struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Image     string `json:"image,omitempty"`
	Type      string `json:"type"`
	SongCount int    `json:"song_count"`
	Subtitle  string `json:"subtitle,omitempty"`
}
