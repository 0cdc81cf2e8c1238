package dns

import (
	"encoding/json"
	"strings"
)

// CredentialField describes one credential input of a provider
type CredentialField struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Secret      bool   `json:"secret"`
}

// Descriptor is the static description of a provider type
type Descriptor struct {
	Type        ProviderType      `json:"type"`
	DisplayName string            `json:"display_name"`
	Fields      []CredentialField `json:"fields"`
	// Alternatives lists the accepted sets of required fields; one must be complete
	Alternatives  [][]string `json:"alternatives"`
	SupportsProxy bool       `json:"supports_proxy"`
	DefaultTTL    int        `json:"default_ttl"`
}

var descriptors = []Descriptor{
	{
		Type:        ProviderCloudflare,
		DisplayName: "Cloudflare",
		Fields: []CredentialField{
			{Name: "apiToken", Description: "Cloudflare API Token", Secret: true},
			{Name: "apiKey", Description: "Global API Key", Secret: true},
			{Name: "email", Description: "Account email for the global API key"},
		},
		Alternatives:  [][]string{{"apiToken"}, {"apiKey", "email"}},
		SupportsProxy: true,
		DefaultTTL:    300,
	},
	{
		Type:        ProviderAliyun,
		DisplayName: "阿里云 DNS",
		Fields: []CredentialField{
			{Name: "accessKeyId", Description: "Access Key ID"},
			{Name: "accessKeySecret", Description: "Access Key Secret", Secret: true},
		},
		Alternatives:  [][]string{{"accessKeyId", "accessKeySecret"}},
		SupportsProxy: false,
		DefaultTTL:    600,
	},
}

// Descriptors returns every supported provider type
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// ParseProviderType normalizes a provider name, accepting known aliases
func ParseProviderType(name string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cloudflare":
		return ProviderCloudflare, nil
	case "aliyun", "aliyundns":
		return ProviderAliyun, nil
	default:
		return "", ErrUnsupportedProvider
	}
}

// Describe returns the descriptor of a provider type
func Describe(t ProviderType) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Type == t {
			return d, true
		}
	}
	return Descriptor{}, false
}

// CheckCredentials verifies that creds completes at least one alternative
func (d Descriptor) CheckCredentials(creds map[string]string) bool {
	for _, alt := range d.Alternatives {
		complete := true
		for _, field := range alt {
			if strings.TrimSpace(creds[field]) == "" {
				complete = false
				break
			}
		}
		if complete {
			return true
		}
	}
	return false
}

// Schema renders the descriptor as a JSON schema document
func (d Descriptor) Schema() json.RawMessage {
	props := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		props[f.Name] = map[string]any{"type": "string", "description": f.Description}
	}

	schema := map[string]any{"type": "object", "properties": props}
	if len(d.Alternatives) == 1 {
		schema["required"] = d.Alternatives[0]
	} else {
		// anyOf: a set carrying every field still satisfies the schema
		anyOf := make([]map[string]any, 0, len(d.Alternatives))
		for _, alt := range d.Alternatives {
			anyOf = append(anyOf, map[string]any{"required": alt})
		}
		schema["anyOf"] = anyOf
	}

	data, _ := json.Marshal(schema)
	return data
}
