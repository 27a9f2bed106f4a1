package reconcile

import (
	"fmt"
	"strings"
)

// Platform names one of the three compared design targets.
type Platform string

const (
	Android Platform = "android"
	IOS     Platform = "ios"
	Web     Platform = "web"
)

// Platforms lists the platforms in report order.
var Platforms = []Platform{Android, IOS, Web}

// Title is the display form used in reports.
func (p Platform) Title() string {
	switch p {
	case Android:
		return "Android"
	case IOS:
		return "iOS"
	case Web:
		return "Web"
	default:
		return string(p)
	}
}

// Counts holds one integer per platform.
type Counts struct {
	Android int `json:"android"`
	IOS     int `json:"ios"`
	Web     int `json:"web"`
}

// Of returns the count for p.
func (c Counts) Of(p Platform) int {
	switch p {
	case Android:
		return c.Android
	case IOS:
		return c.IOS
	case Web:
		return c.Web
	}
	return 0
}

func (c *Counts) add(p Platform, n int) {
	switch p {
	case Android:
		c.Android += n
	case IOS:
		c.IOS += n
	case Web:
		c.Web += n
	}
}

// AllPresent reports whether every platform has a non-zero count.
func (c Counts) AllPresent() bool {
	return c.Android > 0 && c.IOS > 0 && c.Web > 0
}

// Equal reports whether all three counts agree.
func (c Counts) Equal() bool {
	return c.Android == c.IOS && c.IOS == c.Web
}

// Present lists the platforms with a non-zero count.
func (c Counts) Present() []Platform {
	var out []Platform
	for _, p := range Platforms {
		if c.Of(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// Missing lists the platforms with a zero count.
func (c Counts) Missing() []Platform {
	var out []Platform
	for _, p := range Platforms {
		if c.Of(p) == 0 {
			out = append(out, p)
		}
	}
	return out
}

func (c Counts) String() string {
	return fmt.Sprintf("android=%d ios=%d web=%d", c.Android, c.IOS, c.Web)
}

func joinPlatforms(ps []Platform) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
