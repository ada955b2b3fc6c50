package stats

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// File represents a file containing statistical data.
// This is typically a table of data in Excel format.
type File struct {
	URL           string
	Title         string
	Role          Role
	Sheet         string `json:",omitempty"`
	ContentBase64 string
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// LoadContent fetches the file from its URL, which may also be a local path.
func (f *File) LoadContent() error {
	var data []byte
	var err error
	if isRemote(f.URL) {
		data, err = download(f.URL)
	} else {
		data, err = os.ReadFile(f.URL)
	}
	if err != nil {
		return fmt.Errorf("could not load %s: %w", f.URL, err)
	}
	f.ContentBase64 = base64.StdEncoding.EncodeToString(data)
	return nil
}

// Content returns the decoded file content.
func (f *File) Content() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(f.ContentBase64)
	if err != nil {
		return nil, fmt.Errorf("could not decode content of '%s': %w", f.Title, err)
	}
	return data, nil
}
