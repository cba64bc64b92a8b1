package httpx

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleProxy relays GET /api/sheet{1..4} to the matching configured upstream
// so browser clients never see the raw endpoint URLs. Responses pass through
// with the upstream content type; failures come back as structured JSON.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	num := chi.URLParam(r, "num")
	envName := "SHEET" + num + "_URL"

	url := s.sheetURL(num)
	if url == "" {
		writeError(w, http.StatusInternalServerError, envName+" not configured on server", "")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error fetching upstream", err.Error())
		return
	}
	resp, err := s.client.Do(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error fetching upstream", err.Error())
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		writeError(w, http.StatusBadGateway, "error reading upstream response", err.Error())
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Warn("upstream proxy failure",
			slog.String("endpoint", envName),
			slog.Int("status", resp.StatusCode))
		writeError(w, http.StatusBadGateway,
			fmt.Sprintf("upstream %s returned %d", envName, resp.StatusCode),
			truncate(string(body), 2048))
		return
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" || !strings.Contains(ct, "json") {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) sheetURL(num string) string {
	switch num {
	case "1":
		return s.cfg.Sheet1URL
	case "2":
		return s.cfg.Sheet2URL
	case "3":
		return s.cfg.Sheet3URL
	case "4":
		return s.cfg.Sheet4URL
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
