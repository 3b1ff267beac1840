// Package docs embeds the pft user documentation, one markdown file per topic.
package docs

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

//go:embed *.md
var files embed.FS

// ErrUnknownTopic is returned for a topic without a documentation file.
var ErrUnknownTopic = errors.New("unknown topic")

// Topic returns the markdown of a single topic.
func Topic(name string) (string, error) {
	content, err := files.ReadFile(name + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q: %w", name, ErrUnknownTopic)
	}
	return string(content), nil
}

// Topics lists the topic names in alphabetical order. The readme is the
// index and is not a topic.
func Topics() []string {
	names, _ := fs.Glob(files, "*.md")
	topics := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSuffix(name, ".md"); name != "readme" {
			topics = append(topics, name)
		}
	}
	slices.Sort(topics)
	return topics
}

// Read concatenates the markdown of the named topics, "*" stands for all of
// them.
func Read(names ...string) (string, error) {
	var b strings.Builder
	for _, name := range names {
		expanded := []string{name}
		if name == "*" {
			expanded = Topics()
		}
		for _, topic := range expanded {
			content, err := Topic(topic)
			if err != nil {
				return "", err
			}
			b.WriteString(content)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
