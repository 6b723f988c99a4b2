package stadium

// DefaultStadiums are the names SetDefaultStadium accepts.
var DefaultStadiums = []string{
	"Classic",
	"Easy",
	"Small",
	"Big",
	"Rounded",
	"Hockey",
	"Big Hockey",
	"Big Easy",
	"Big Rounded",
	"Huge",
}

// IsDefault reports whether name is one of the built-in stadiums.
func IsDefault(name string) bool {
	for _, n := range DefaultStadiums {
		if n == name {
			return true
		}
	}
	return false
}
