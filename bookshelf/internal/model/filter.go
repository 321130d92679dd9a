package model

import (
	"net/url"
	"strings"
)

type FilterKind uint8

const (
	FilterNone FilterKind = iota
	FilterByName
	FilterByReading
	FilterByFinished
	// FilterAll selects every book as full records.
	FilterAll
)

func (k FilterKind) String() string {
	switch k {
	case FilterByName:
		return "name"
	case FilterByReading:
		return "reading"
	case FilterByFinished:
		return "finished"
	case FilterAll:
		return "all"
	default:
		return "none"
	}
}

// Filter selects books for listing. Only one kind applies at a time.
type Filter struct {
	Kind FilterKind
	Name string
	Flag bool
}

// ParseFilter picks the filter from query params in precedence order:
// name, reading, finished. A reading/finished value other than "0" or "1"
// yields FilterAll; no filter params at all yields FilterNone.
func ParseFilter(q url.Values) Filter {
	if q.Has("name") {
		return Filter{Kind: FilterByName, Name: q.Get("name")}
	}
	if q.Has("reading") {
		return parseFlag(FilterByReading, q.Get("reading"))
	}
	if q.Has("finished") {
		return parseFlag(FilterByFinished, q.Get("finished"))
	}
	return Filter{Kind: FilterNone}
}

func parseFlag(kind FilterKind, v string) Filter {
	switch v {
	case "1":
		return Filter{Kind: kind, Flag: true}
	case "0":
		return Filter{Kind: kind, Flag: false}
	default:
		return Filter{Kind: FilterAll}
	}
}

func (f Filter) Match(b Book) bool {
	switch f.Kind {
	case FilterByName:
		return strings.EqualFold(b.Name, f.Name)
	case FilterByReading:
		return b.Reading == f.Flag
	case FilterByFinished:
		return b.Finished == f.Flag
	default:
		return true
	}
}
