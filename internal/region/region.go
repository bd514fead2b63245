// Package region defines the closed set of region codes a user profile can
// carry. Popularity reports are bucketed by these codes and always include
// every entry of All, in order.
package region

// Version identifies the revision of the enumeration. Bump it whenever a code
// is added or removed so stored profiles can be migrated.
const Version = 1

// Code is a two-letter region identifier (US postal abbreviation).
type Code string

// Region pairs a code with its display name.
type Region struct {
	Code Code
	Name string
}

var all = []Region{
	{"AL", "Alabama"},
	{"AK", "Alaska"},
	{"AZ", "Arizona"},
	{"AR", "Arkansas"},
	{"CA", "California"},
	{"CO", "Colorado"},
	{"CT", "Connecticut"},
	{"DE", "Delaware"},
	{"DC", "District of Columbia"},
	{"FL", "Florida"},
	{"GA", "Georgia"},
	{"HI", "Hawaii"},
	{"ID", "Idaho"},
	{"IL", "Illinois"},
	{"IN", "Indiana"},
	{"IA", "Iowa"},
	{"KS", "Kansas"},
	{"KY", "Kentucky"},
	{"LA", "Louisiana"},
	{"ME", "Maine"},
	{"MD", "Maryland"},
	{"MA", "Massachusetts"},
	{"MI", "Michigan"},
	{"MN", "Minnesota"},
	{"MS", "Mississippi"},
	{"MO", "Missouri"},
	{"MT", "Montana"},
	{"NE", "Nebraska"},
	{"NV", "Nevada"},
	{"NH", "New Hampshire"},
	{"NJ", "New Jersey"},
	{"NM", "New Mexico"},
	{"NY", "New York"},
	{"NC", "North Carolina"},
	{"ND", "North Dakota"},
	{"OH", "Ohio"},
	{"OK", "Oklahoma"},
	{"OR", "Oregon"},
	{"PA", "Pennsylvania"},
	{"RI", "Rhode Island"},
	{"SC", "South Carolina"},
	{"SD", "South Dakota"},
	{"TN", "Tennessee"},
	{"TX", "Texas"},
	{"UT", "Utah"},
	{"VT", "Vermont"},
	{"VA", "Virginia"},
	{"WA", "Washington"},
	{"WV", "West Virginia"},
	{"WI", "Wisconsin"},
	{"WY", "Wyoming"},
}

var byCode = func() map[Code]string {
	m := make(map[Code]string, len(all))
	for _, r := range all {
		m[r.Code] = r.Name
	}
	return m
}()

// All returns every region in display order. The slice is a copy.
func All() []Region {
	out := make([]Region, len(all))
	copy(out, all)
	return out
}

// Lookup returns the display name for code.
func Lookup(code Code) (string, bool) {
	name, ok := byCode[code]
	return name, ok
}

// Valid reports whether code belongs to the enumeration.
func Valid(code Code) bool {
	_, ok := byCode[code]
	return ok
}
