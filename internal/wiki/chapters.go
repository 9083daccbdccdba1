package wiki

import "strings"

// RenderChapters prefixes content with one "## <title>" heading per
// non-blank line of chapters. Headings are separated by a blank line and
// followed by one before the content. Without any titles content is
// returned unchanged.
func RenderChapters(chapters, content string) string {
	var headings []string
	for _, line := range strings.Split(chapters, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		headings = append(headings, "## "+line)
	}
	if len(headings) == 0 {
		return content
	}
	return strings.Join(headings, "\n\n") + "\n\n" + content
}
