package scan

// Profile describes a benchmark profile offered to callers.
type Profile struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DefaultOSCAPProfile is the profile used by direct evaluation requests that
// do not name one.
const DefaultOSCAPProfile = "xccdf_org.ssgproject.content_profile_cis_level1_server"

var knownProfiles = []Profile{
	{
		ID:          "xccdf_org.ssgproject.content_profile_cis_level1_server",
		Title:       "CIS Level 1 Server",
		Description: "CIS Benchmark Level 1 profile for servers",
	},
	{
		ID:          "xccdf_org.ssgproject.content_profile_cis_level1_workstation",
		Title:       "CIS Level 1 Workstation",
		Description: "CIS Benchmark Level 1 profile for workstations",
	},
	{
		ID:          "xccdf_org.ssgproject.content_profile_cis_level2_server",
		Title:       "CIS Level 2 Server",
		Description: "CIS Benchmark Level 2 profile for servers",
	},
	{
		ID:          "xccdf_org.ssgproject.content_profile_cis_level2_workstation",
		Title:       "CIS Level 2 Workstation",
		Description: "CIS Benchmark Level 2 profile for workstations",
	},
	{
		ID:          "xccdf_org.ssgproject.content_profile_stig",
		Title:       "STIG Profile",
		Description: "Security Technical Implementation Guide profile",
	},
}

// KnownProfiles returns the fixed profile catalog.
func KnownProfiles() []Profile {
	out := make([]Profile, len(knownProfiles))
	copy(out, knownProfiles)
	return out
}
