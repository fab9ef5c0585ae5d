package workbench

import (
	"fmt"
	"regexp"
)

var projectURLPattern = regexp.MustCompile(`projects/([^/?#]+)`)

// ProjectIDFromURL extracts the project id from a Workbench project URL of
// the form https://workbench.grabcad.com/workbench/projects/<id>#/home.
// Trailing fragments and query strings are ignored.
func ProjectIDFromURL(raw string) (string, error) {
	m := projectURLPattern.FindStringSubmatch(raw)
	if m == nil || m[1] == "" {
		return "", fmt.Errorf(
			"invalid project url %q: expected form https://workbench.grabcad.com/workbench/projects/<project_id>#/home", raw)
	}
	return m[1], nil
}
