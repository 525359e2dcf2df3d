// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the Forkful API.
// Handlers are grouped by resource (auth, users, recipes, tags,
// ingredients) and receive their dependencies through the handler struct.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// Pagination defaults and bounds for list endpoints.
const (
	defaultPageSize = 6
	maxPageSize     = 100
)

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response", "error", err)
	}
}

// writeDetail sends a single-message error body: {"detail": "..."}.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeFieldErrors sends a 400 with per-field validation messages:
// {"name": ["Name is required."], ...}.
func writeFieldErrors(w http.ResponseWriter, errs map[string][]string) {
	writeJSON(w, http.StatusBadRequest, errs)
}

// writeServerError logs the error and sends an opaque 500.
func writeServerError(w http.ResponseWriter, op string, err error) {
	slog.Error(op, "error", err)
	writeDetail(w, http.StatusInternalServerError, "Internal server error.")
}

// decodeBody parses the request body as JSON into dst. Returns false (after
// responding 400) when the body is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed JSON body.")
		return false
	}
	return true
}

// page holds parsed pagination query parameters.
type page struct {
	Number int // 1-based
	Size   int
}

func (p page) offset() int {
	return (p.Number - 1) * p.Size
}

// parsePage reads ?page= and ?limit= with defaults and bounds.
func parsePage(r *http.Request) page {
	p := page{Number: 1, Size: defaultPageSize}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.Number = n
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.Size = n
			if p.Size > maxPageSize {
				p.Size = maxPageSize
			}
		}
	}
	return p
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// envelope is the paginated list response body.
type envelope struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// paginate builds the envelope, deriving next/previous links from the
// request URL so filters survive page navigation.
func paginate(r *http.Request, p page, count int, results any) envelope {
	env := envelope{Count: count, Results: results}

	lastPage := (count + p.Size - 1) / p.Size
	if p.Number < lastPage {
		env.Next = pageLink(r, p.Number+1)
	}
	if p.Number > 1 {
		env.Previous = pageLink(r, p.Number-1)
	}
	return env
}

func pageLink(r *http.Request, number int) *string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(number))
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}

// absoluteURL joins a base URL and a path for responses that must carry a
// full link, like the recipe share URL encoded in QR codes.
func absoluteURL(base, path string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return path
	}
	return fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, path)
}
