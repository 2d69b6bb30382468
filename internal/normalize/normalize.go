package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

// ImageSize размер, к которому приводятся ссылки на изображения Blogger
const ImageSize = "s800"

const imageHost = "googleusercontent.com"

var (
	widthHeightRe = regexp.MustCompile(`=w\d+-h\d+`)
	sizeSuffixRe  = regexp.MustCompile(`=s\d+(-[a-z]+)?$`)
)

// ImageURL приводит ссылку на изображение к фиксированному размеру (=s800)
func ImageURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return u
	}

	u = widthHeightRe.ReplaceAllString(u, "="+ImageSize)
	u = sizeSuffixRe.ReplaceAllString(u, "="+ImageSize)

	if strings.Contains(u, imageHost) && !strings.Contains(u, "=s") && !strings.Contains(u, "=w") {
		u = strings.TrimRight(u, "/") + "=" + ImageSize
	}
	return u
}

// NormalizeURL нормализует URL поста: убирает якорь и мобильный параметр ?m=1
func NormalizeURL(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)
	// Удаляем якори
	if idx := strings.Index(urlStr, "#"); idx > -1 {
		urlStr = urlStr[:idx]
	}

	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.RawQuery == "" {
		return urlStr
	}

	q := parsed.Query()
	if _, ok := q["m"]; !ok {
		return urlStr
	}
	q.Del("m")
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

// ResolveURL делает ссылку абсолютной относительно base
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
