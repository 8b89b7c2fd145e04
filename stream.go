package main

import (
	"errors"
	"io"
	"net"
	"net/http"

	"music-gateway-go/logcolors"
	"music-gateway-go/stats"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Headers forwarded verbatim from the media CDN to the client.
var streamPassthroughHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
	"Cache-Control",
	"ETag",
	"Last-Modified",
}

// streamSong resolves the media URL for a song and proxies the bytes,
// forwarding the client's Range header so seeking works. The response
// streams directly; nothing is buffered or cached.
func (a *app) streamSong(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("stream")

	id := mux.Vars(r)["id"]
	quality := r.URL.Query().Get("quality")

	mediaURL, err := a.svc.ResolveStreamURL(r.Context(), id, quality)
	if err != nil {
		a.serviceError(w, r, err)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, mediaURL, nil)
	if err != nil {
		Respond(w, r).Error(http.StatusBadGateway, "Failed to build media request")
		return
	}
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := a.media.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			log.Errorf("%s Media fetch timed out for %s: %v", logcolors.LogStream, id, err)
			Respond(w, r).Error(http.StatusGatewayTimeout, "Media server timed out")
			return
		}
		log.Errorf("%s Media fetch failed for %s: %v", logcolors.LogStream, id, err)
		Respond(w, r).Error(http.StatusBadGateway, "Media server unavailable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Errorf("%s Media server returned %d for %s", logcolors.LogStream, resp.StatusCode, id)
		Respond(w, r).Error(http.StatusBadGateway, "Media server error")
		return
	}

	for _, h := range streamPassthroughHeaders {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	if w.Header().Get("Accept-Ranges") == "" {
		w.Header().Set("Accept-Ranges", "bytes")
	}

	w.WriteHeader(resp.StatusCode)
	if r.Method == http.MethodHead {
		return
	}

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		// Usually the client seeking or disconnecting mid-track
		log.Debugf("%s Stream for %s ended after %d bytes: %v", logcolors.LogStream, id, written, err)
		return
	}
	log.Infof("%s Served %d bytes for %s", logcolors.LogStream, written, id)
}
