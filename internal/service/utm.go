package service

import (
	"net/url"
	"strings"

	"github.com/linklet/linklet/internal/model"
)

// MergeUTM combines request-supplied parameters with the link's stored
// defaults. Each of the five fields resolves independently: the
// request value wins when non-empty, else the default, else absent.
func MergeUTM(request, defaults model.UTMParams) model.UTMParams {
	return model.UTMParams{
		Source:   pick(request.Source, defaults.Source),
		Medium:   pick(request.Medium, defaults.Medium),
		Campaign: pick(request.Campaign, defaults.Campaign),
		Term:     pick(request.Term, defaults.Term),
		Content:  pick(request.Content, defaults.Content),
	}
}

func pick(request, fallback string) string {
	if request != "" {
		return request
	}
	return fallback
}

// ApplyUTM injects the merged parameters into the destination URL.
// Nothing is appended unless source or medium resolved to a value;
// partial tag sets without either are considered tracking noise and
// the destination passes through byte-identical. Injected fields
// overwrite same-named parameters already on the destination. An
// unparseable destination also passes through unchanged, since a
// failed merge must never block the redirect.
func ApplyUTM(destination string, utm model.UTMParams) string {
	if utm.Source == "" && utm.Medium == "" {
		return destination
	}

	coerced := destination
	if !strings.Contains(coerced, "://") {
		coerced = "https://" + coerced
	}

	u, err := url.Parse(coerced)
	if err != nil || u.Host == "" {
		return destination
	}

	q := u.Query()
	for name, value := range map[string]string{
		"utm_source":   utm.Source,
		"utm_medium":   utm.Medium,
		"utm_campaign": utm.Campaign,
		"utm_term":     utm.Term,
		"utm_content":  utm.Content,
	} {
		if value != "" {
			q.Set(name, value)
		}
	}
	u.RawQuery = q.Encode()
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
