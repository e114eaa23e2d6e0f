package script

import (
	"bufio"
	"strconv"
	"strings"
)

// Meta holds the run directives read from a spec file's leading comment
// block. Directives look like:
//
//	// gch:name smoke checks
//	// gch:seq 2.5
//	// gch:tags smoke,slow
//	// gch:skip
//
// Scanning stops at the first line that is neither blank nor a line comment.
type Meta struct {
	Name string
	Seq  float64
	Tags []string
	Skip bool
}

const directivePrefix = "gch:"

// ParseMeta extracts directives from the top of a spec source.
func ParseMeta(src string) Meta {
	var meta Meta
	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "//") {
			break
		}
		body := strings.TrimSpace(strings.TrimPrefix(line, "//"))
		if !strings.HasPrefix(body, directivePrefix) {
			continue
		}
		directive := strings.TrimPrefix(body, directivePrefix)
		key, value, _ := strings.Cut(directive, " ")
		value = strings.TrimSpace(value)
		switch key {
		case "name":
			meta.Name = value
		case "seq":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				meta.Seq = f
			}
		case "tags":
			for _, t := range strings.Split(value, ",") {
				if t = strings.TrimSpace(t); t != "" {
					meta.Tags = append(meta.Tags, t)
				}
			}
		case "skip":
			meta.Skip = true
		}
	}
	return meta
}
