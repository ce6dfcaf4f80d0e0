package splunkbase

import (
	"encoding/json"
	"strings"
)

// App is the catalog record for one Splunkbase app.
type App struct {
	UID        int       `json:"uid"`
	AppID      string    `json:"appid"`
	Title      string    `json:"title"`
	IsArchived bool      `json:"is_archived"`
	Releases   []Release `json:"releases"`
	Release    *Release  `json:"release"`

	// APIURL is the catalog endpoint the record was read from.
	APIURL string `json:"-"`
}

// Release is one published version of an app.
type Release struct {
	Title               string   `json:"title"`
	PublishedTime       string   `json:"published_time"`
	SplunkCompatibility Versions `json:"splunk_compatibility"`
}

// Latest returns the latest release, falling back to the first entry of
// Releases (the API orders them newest first). Nil when the app has none.
func (a *App) Latest() *Release {
	if a.Release != nil && a.Release.Title != "" {
		return a.Release
	}
	if len(a.Releases) > 0 {
		return &a.Releases[0]
	}
	return nil
}

// FindRelease returns the release whose title equals version.
func (a *App) FindRelease(version string) (*Release, bool) {
	version = strings.TrimSpace(version)
	for i := range a.Releases {
		if a.Releases[i].Title == version {
			return &a.Releases[i], true
		}
	}
	return nil, false
}

// Versions is a list of platform versions. The API normally sends an array
// but older records carry a single comma separated string.
type Versions []string

// UnmarshalJSON accepts an array of strings, a string, or null.
func (v *Versions) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*v = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*v = nil
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			*v = append(*v, p)
		}
	}
	return nil
}
