package domainutil

import (
	"fmt"
	"net"
	"strings"
)

const maxLabelLength = 63

// NormalizeLabel 校验并规范化单个子域名标签（小写，1-63 位，a-z 0-9 -，首尾不能是 -）
func NormalizeLabel(label string) (string, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return "", fmt.Errorf("subdomain must not be empty")
	}
	if len(label) > maxLabelLength {
		return "", fmt.Errorf("subdomain must be at most %d characters", maxLabelLength)
	}
	for _, r := range label {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return "", fmt.Errorf("subdomain contains invalid character: %c", r)
		}
	}
	if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
		return "", fmt.Errorf("subdomain must not start or end with '-'")
	}
	return label, nil
}

// ValidateRecordValue 按记录类型校验记录值，返回规范化后的值
func ValidateRecordValue(recordType, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("record value must not be empty")
	}

	switch strings.ToUpper(recordType) {
	case "A":
		ip := net.ParseIP(value)
		if ip == nil || ip.To4() == nil {
			return "", fmt.Errorf("invalid IPv4 address: %s", value)
		}
		return ip.String(), nil
	case "AAAA":
		ip := net.ParseIP(value)
		if ip == nil || ip.To4() != nil {
			return "", fmt.Errorf("invalid IPv6 address: %s", value)
		}
		return ip.String(), nil
	case "CNAME":
		host, err := Normalize(value)
		if err != nil {
			return "", fmt.Errorf("invalid CNAME target: %w", err)
		}
		if strings.Contains(host, "*") {
			return "", fmt.Errorf("invalid CNAME target: wildcard not allowed")
		}
		return host, nil
	default:
		return "", fmt.Errorf("unsupported record type: %s", recordType)
	}
}
