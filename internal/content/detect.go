package content

import "strings"

type osRule struct {
	all        []string
	any        []string
	datastream string
}

// osTable is checked in order. Ubuntu precedes Debian because Ubuntu's
// os-release lists debian in ID_LIKE.
var osTable = []osRule{
	{all: []string{"ubuntu", "24.04"}, datastream: "ssg-ubuntu2404-ds.xml"},
	{all: []string{"ubuntu", "22.04"}, datastream: "ssg-ubuntu2204-ds.xml"},
	{all: []string{"ubuntu", "20.04"}, datastream: "ssg-ubuntu2004-ds.xml"},
	{all: []string{"ubuntu"}, datastream: "ssg-ubuntu2404-ds.xml"},
	{all: []string{"debian"}, datastream: "ssg-debian12-ds.xml"},
	{any: []string{"rhel", "red hat"}, datastream: "ssg-rhel9-ds.xml"},
	{all: []string{"centos"}, datastream: "ssg-centos9-ds.xml"},
}

// DetectDatastream maps os-release content to a datastream file name.
// Matching is case-insensitive substring search. ok is false when no
// distribution in the table matches.
func DetectDatastream(osRelease string) (name string, ok bool) {
	info := strings.ToLower(osRelease)
	for _, r := range osTable {
		if r.matches(info) {
			return r.datastream, true
		}
	}
	return "", false
}

func (r osRule) matches(info string) bool {
	for _, s := range r.all {
		if !strings.Contains(info, s) {
			return false
		}
	}
	if len(r.any) == 0 {
		return true
	}
	for _, s := range r.any {
		if strings.Contains(info, s) {
			return true
		}
	}
	return false
}
