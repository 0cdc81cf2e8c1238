package dns

import "strings"

// ToFQDN joins a relative record name with its zone.
//
//	zone = "example.com"
//	name = "@"    -> "example.com"
//	name = "www"  -> "www.example.com"
//	name = "a.b"  -> "a.b.example.com"
//
// A name that already ends with the zone is returned as-is.
func ToFQDN(zone string, name string) string {
	zone = strings.TrimSuffix(strings.TrimSpace(zone), ".")
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")

	if name == "" || name == "@" {
		return zone
	}
	if name == zone || strings.HasSuffix(name, "."+zone) {
		return name
	}
	return name + "." + zone
}

// RelativeName strips the zone from a record name, returning "@" for the apex.
//
//	"www.example.com" in "example.com" -> "www"
//	"example.com"     in "example.com" -> "@"
//	"abc"             in "example.com" -> "abc"
func RelativeName(name, zone string) string {
	zone = strings.TrimSuffix(strings.TrimSpace(zone), ".")
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")

	if name == "" || name == zone {
		return "@"
	}
	if strings.HasSuffix(name, "."+zone) {
		return strings.TrimSuffix(name, "."+zone)
	}
	return name
}

// SplitLastTwoLabels treats the last two labels of fqdn as the zone.
// It is wrong for multi-label public suffixes such as example.com.cn.
func SplitLastTwoLabels(fqdn string) (zone, rr string) {
	fqdn = strings.TrimSuffix(strings.TrimSpace(fqdn), ".")
	labels := strings.Split(fqdn, ".")
	if len(labels) <= 2 {
		return fqdn, "@"
	}
	zone = strings.Join(labels[len(labels)-2:], ".")
	return zone, strings.Join(labels[:len(labels)-2], ".")
}
