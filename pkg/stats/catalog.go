package stats

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	linkRegex = regexp.MustCompile(`<a href=\"(.*?)\">(.*?)</a>`)
	stripTags = regexp.MustCompile(`<.*?>`)
)

// Catalog is an HTML index page listing downloadable statistical tables,
// such as a chapter page of a statistical yearbook.
type Catalog struct {
	RootURL string
	Files   []*File
}

// FindTables collects the links whose title contains any of patterns.
func (c *Catalog) FindTables(patterns ...string) error {
	html, err := get(c.RootURL)
	if err != nil {
		return err
	}

	base, err := url.Parse(c.RootURL)
	if err != nil {
		return err
	}
	basePath := path.Dir(base.Path)

	for _, m := range linkRegex.FindAllStringSubmatch(html, -1) {
		relativePath := m[1]
		title := m[2]

		var found bool
		for _, p := range patterns {
			if strings.Contains(title, p) {
				found = true
				break
			}
		}
		if !found {
			continue
		}

		u := *base
		if strings.HasPrefix(relativePath, "/") {
			u.Path = relativePath
		} else {
			u.Path = path.Join(basePath, relativePath)
		}
		cleanTitle := strings.TrimSpace(stripTags.ReplaceAllString(title, " "))

		c.Files = append(c.Files, &File{
			URL:   u.String(),
			Title: cleanTitle,
		})
	}
	return nil
}

// FindFile returns the first catalogued file whose title contains pattern.
func (c *Catalog) FindFile(pattern string) (*File, error) {
	for _, f := range c.Files {
		if strings.Contains(f.Title, pattern) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no table matching '%s' in %s", pattern, c.RootURL)
}
